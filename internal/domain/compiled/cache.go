package compiled

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 1024

// DecisionCache is the per-invocation decision cache described in spec
// §4.3: a small fixed-capacity LRU keyed by a structural hash of the
// action descriptor, storing the boolean decision. Go has no thread-local
// storage, so the cache is not implicit — the sandbox host owns exactly
// one DecisionCache per invocation (one goroutine, one WASM instance),
// which gives it the same isolation a thread-local would in the original
// design. No decision path invalidates an entry; only an explicit Clear
// empties the cache.
type DecisionCache struct {
	entries *lru.Cache[string, bool]
	hits    uint64
	misses  uint64
}

// NewDecisionCache returns a decision cache with the standard fixed
// capacity.
func NewDecisionCache() *DecisionCache {
	c, err := lru.New[string, bool](defaultCacheSize)
	if err != nil {
		// lru.New only errors on a non-positive size, which defaultCacheSize
		// never is.
		panic(err)
	}
	return &DecisionCache{entries: c}
}

func (c *DecisionCache) get(key string) (bool, bool) {
	if c == nil {
		return false, false
	}
	v, ok := c.entries.Get(key)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

func (c *DecisionCache) put(key string, decision bool) {
	if c == nil {
		return
	}
	c.entries.Add(key, decision)
}

// CacheStats reports hit/miss counters for diagnostics.
type CacheStats struct {
	Hits    uint64
	Misses  uint64
	Items   int
	HitRate float64
}

// Stats returns the cache's current hit/miss statistics.
func (c *DecisionCache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	total := c.hits + c.misses
	var rate float64
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return CacheStats{Hits: c.hits, Misses: c.misses, Items: c.entries.Len(), HitRate: rate}
}

// Clear empties the cache and resets its statistics.
func (c *DecisionCache) Clear() {
	if c == nil {
		return
	}
	c.entries.Purge()
	c.hits, c.misses = 0, 0
}
