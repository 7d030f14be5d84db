package scraper

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// pacer limits requests per host: one in flight at a time, and consecutive
// starts at least `every` apart.
type pacer struct {
	mu    sync.Mutex
	every time.Duration
	hosts map[string]*hostSlot
}

type hostSlot struct {
	limiter *rate.Limiter
	sem     chan struct{}
}

func newPacer(every time.Duration) *pacer {
	return &pacer{every: every, hosts: make(map[string]*hostSlot)}
}

func (p *pacer) slot(host string) *hostSlot {
	p.mu.Lock()
	defer p.mu.Unlock()

	hs, ok := p.hosts[host]
	if !ok {
		limit := rate.Inf
		if p.every > 0 {
			limit = rate.Every(p.every)
		}
		hs = &hostSlot{
			limiter: rate.NewLimiter(limit, 1),
			sem:     make(chan struct{}, 1),
		}
		p.hosts[host] = hs
	}
	return hs
}

// acquire blocks until rawURL's host is free and its spacing has elapsed.
// The returned func releases the host.
func (p *pacer) acquire(ctx context.Context, rawURL string) (func(), error) {
	hs := p.slot(hostOf(rawURL))

	select {
	case hs.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := hs.limiter.Wait(ctx); err != nil {
		<-hs.sem
		return nil, err
	}
	return func() { <-hs.sem }, nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.ToLower(u.Hostname())
}
