package cache

import (
	"testing"
	"time"

	"github.com/use-agent/propscrape/models"
)

func newTestCache(t *testing.T, max int, ttl time.Duration) (*Cache[string], *time.Time) {
	t.Helper()
	c := New[string](max, ttl)
	t.Cleanup(c.Stop)
	now := time.Date(2024, 4, 3, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCache_GetSet(t *testing.T) {
	c, now := newTestCache(t, 10, time.Hour)
	c.Set("k", "v")

	if _, ok := c.Get("k", 0); ok {
		t.Error("maxAge 0 must disable the lookup")
	}
	if v, ok := c.Get("k", time.Minute); !ok || v != "v" {
		t.Errorf("Get = %q, %v; want hit", v, ok)
	}

	*now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k", time.Minute); ok {
		t.Error("entry older than maxAge should miss")
	}
	if _, ok := c.Get("k", 24*time.Hour); !ok {
		t.Error("entry within maxAge and ttl should hit")
	}

	*now = now.Add(2 * time.Hour)
	if _, ok := c.Get("k", 24*time.Hour); ok {
		t.Error("entry older than ttl should miss")
	}
	c.sweep()
	if c.Len() != 0 {
		t.Errorf("Len after sweep = %d, want 0", c.Len())
	}
}

func TestCache_EvictsOldest(t *testing.T) {
	c, now := newTestCache(t, 2, time.Hour)
	c.Set("a", "1")
	*now = now.Add(time.Second)
	c.Set("b", "2")
	*now = now.Add(time.Second)
	c.Set("c", "3")

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if _, ok := c.Get("a", time.Hour); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get("c", time.Hour); !ok {
		t.Error("newest entry should be present")
	}
}

func TestKey(t *testing.T) {
	yes, no := true, false
	base := Key("https://www.property24.com/for-sale/a/b/c/1/2", models.ScrapeOptions{})

	if base != Key(" https://www.property24.com/for-sale/a/b/c/1/2 ", models.ScrapeOptions{}) {
		t.Error("surrounding whitespace should not change the key")
	}
	if base == Key("https://www.property24.com/for-sale/a/b/c/1/2", models.ScrapeOptions{StrictMode: &yes}) {
		t.Error("strict mode should change the key")
	}
	if Key("u", models.ScrapeOptions{AutoCorrect: &yes}) == Key("u", models.ScrapeOptions{AutoCorrect: &no}) {
		t.Error("auto-correct true and false should differ")
	}
}
