package simhash

import (
	"sync"
)

// Tracker remembers the first layout fingerprint seen per key (a listing
// source) and measures later pages against it.
type Tracker struct {
	mu        sync.Mutex
	baseline  map[string]uint64
	threshold int
}

// NewTracker creates a tracker that reports drift beyond threshold bits.
func NewTracker(threshold int) *Tracker {
	return &Tracker{baseline: make(map[string]uint64), threshold: threshold}
}

// Observe records fp for key. The first non-zero fingerprint becomes the
// baseline. It returns the distance to the baseline and whether that
// exceeds the threshold.
func (t *Tracker) Observe(key string, fp uint64) (distance int, drifted bool) {
	if fp == 0 {
		return 0, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	base, ok := t.baseline[key]
	if !ok {
		t.baseline[key] = fp
		return 0, false
	}
	d := Distance(base, fp)
	return d, d > t.threshold
}

// Reset forgets the baseline for key, e.g. after selectors were updated.
func (t *Tracker) Reset(key string) {
	t.mu.Lock()
	delete(t.baseline, key)
	t.mu.Unlock()
}
