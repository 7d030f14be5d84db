// Package cache keeps recent scrape results in memory so repeated requests
// for the same listing within a caller-chosen max age skip the fetch.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/propscrape/models"
)

type entry[T any] struct {
	value     T
	createdAt time.Time
}

// Cache is an in-memory cache with a hard TTL and a size cap.
// It is safe for concurrent use.
type Cache[T any] struct {
	mu         sync.RWMutex
	store      map[string]*entry[T]
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	done       chan struct{}
	stopOnce   sync.Once
}

// New creates a cache holding up to maxEntries values for at most ttl.
// A background goroutine evicts expired entries every ttl/12 (at least a
// minute) until Stop is called.
func New[T any](maxEntries int, ttl time.Duration) *Cache[T] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	c := &Cache[T]{
		store:      make(map[string]*entry[T]),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
		done:       make(chan struct{}),
	}

	interval := ttl / 12
	if interval < time.Minute {
		interval = time.Minute
	}
	go c.cleanupLoop(interval)
	return c
}

// Key derives a cache key from the normalized URL and the validation
// options that change the result.
func Key(rawURL string, opts models.ScrapeOptions) string {
	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(rawURL)))
	for _, b := range []*bool{opts.StrictMode, opts.AllowPartialData, opts.AutoCorrect} {
		h.Write([]byte("|"))
		if b == nil {
			h.Write([]byte("-"))
		} else {
			h.Write([]byte(strconv.FormatBool(*b)))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the value for key if it is younger than maxAge and the TTL.
// A maxAge <= 0 disables the lookup.
func (c *Cache[T]) Get(key string, maxAge time.Duration) (T, bool) {
	var zero T
	if maxAge <= 0 {
		return zero, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}

	age := c.now().Sub(e.createdAt)
	if age > maxAge || (c.ttl > 0 && age > c.ttl) {
		return zero, false
	}
	return e.value, true
}

// Set stores value under key. At capacity the oldest entry is evicted.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.store {
			if oldestKey == "" || e.createdAt.Before(oldest) {
				oldestKey, oldest = k, e.createdAt
			}
		}
		delete(c.store, oldestKey)
	}

	c.store[key] = &entry[T]{value: value, createdAt: c.now()}
}

// Len returns the number of entries, including expired ones not yet swept.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Stop ends the cleanup goroutine.
func (c *Cache[T]) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

func (c *Cache[T]) sweep() {
	if c.ttl <= 0 {
		return
	}
	cutoff := c.now().Add(-c.ttl)
	c.mu.Lock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
	c.mu.Unlock()
}

func (c *Cache[T]) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.done:
			return
		}
	}
}
