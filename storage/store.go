package storage

import (
	"context"
	"sync"
)

// Store persists records. Save upserts on (source, listing id) and returns
// the number of rows written.
type Store interface {
	Save(ctx context.Context, recs ...*Record) (int, error)
	Close()
}

// MemoryStore keeps records in a map. It is used when no database is
// configured and in tests.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]*Record)}
}

func (m *MemoryStore) Save(_ context.Context, recs ...*Record) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range recs {
		if r == nil || r.ListingID == "" {
			continue
		}
		m.recs[string(r.Source)+"/"+r.ListingID] = r
		n++
	}
	return n, nil
}

// Get returns the record stored for source and listing id.
func (m *MemoryStore) Get(source, listingID string) (*Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.recs[source+"/"+listingID]
	return r, ok
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.recs)
}

func (m *MemoryStore) Close() {}
