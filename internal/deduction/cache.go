package deduction

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

const (
	DefaultCacheSize = 100
	DefaultCacheTTL  = 10 * time.Minute
)

// resultCache is a capacity- and TTL-bounded cache of deduction results.
// Eviction is oldest-inserted, not LRU-on-read: a plain mutex-guarded map
// with an insertion queue is all the concurrency model requires. Entries are
// not revalidated against rate table changes inside the TTL window; that
// staleness is a deliberate, documented trade-off.
type resultCache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	order    []string
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

type cacheEntry struct {
	result     DeductionResult
	insertedAt time.Time
}

func newResultCache(capacity int, ttl time.Duration) *resultCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &resultCache{
		entries:  make(map[string]cacheEntry, capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (c *resultCache) get(key string) (DeductionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return DeductionResult{}, false
	}
	if c.now().Sub(entry.insertedAt) > c.ttl {
		delete(c.entries, key)
		return DeductionResult{}, false
	}
	return entry.result, true
}

func (c *resultCache) put(key string, result DeductionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = cacheEntry{result: result, insertedAt: c.now()}
		return
	}

	for len(c.entries) >= c.capacity && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		// The queue can hold keys already expired out of the map; only a
		// live delete counts as an eviction.
		if _, live := c.entries[oldest]; live {
			delete(c.entries, oldest)
		}
	}

	c.entries[key] = cacheEntry{result: result, insertedAt: c.now()}
	c.order = append(c.order, key)
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// cacheKey hashes the canonical JSON of every pay event field, so a change
// to any field (gross pay, YTD totals, claims, date) yields a distinct key.
func cacheKey(event PayEvent) string {
	raw, _ := json.Marshal(event)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
