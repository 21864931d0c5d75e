package pricing

import (
	"sync"
	"time"
)

// cacheEntry pairs a resolved quote with its storage timestamp.
// Entries are overwritten, never merged, on refresh.
type cacheEntry struct {
	quote    Quote
	storedAt time.Time
}

// quoteCache is a TTL cache of resolved lookups keyed by
// (normalized name, zip). Reads strictly expire: no read returns a value
// older than the TTL. Writes are last-write-wins upserts, so lost updates
// under race are harmless.
type quoteCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func newQuoteCache(ttl time.Duration) *quoteCache {
	return &quoteCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// get returns a cached quote younger than the TTL, or ok=false.
// Expired entries are left in place; the subsequent put overwrites them.
func (c *quoteCache) get(key string) (Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return Quote{}, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		return Quote{}, false
	}
	return e.quote, true
}

func (c *quoteCache) put(key string, q Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{quote: q, storedAt: c.now()}
}

// len reports the number of stored entries, expired included.
func (c *quoteCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
