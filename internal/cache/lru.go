// Package cache provides a bounded in-process LRU cache with optional expiry.
package cache

import (
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fmhr12/ORN-Prognosis/internal/metrics"
)

// LRU is a size-bounded, thread-safe cache. Lookups are counted in the
// cache_total metric under the cache's name.
type LRU[K comparable, V any] struct {
	name   string
	cache  *lru.Cache[K, entry[V]]
	ttl    time.Duration
	now    func() time.Time
	hits   atomic.Uint64
	misses atomic.Uint64
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewLRU creates a cache holding at most size entries. ttl of 0 disables expiry.
func NewLRU[K comparable, V any](name string, size int, ttl time.Duration) (*LRU[K, V], error) {
	c, err := lru.New[K, entry[V]](size)
	if err != nil {
		return nil, fmt.Errorf("create %s cache: %w", name, err)
	}
	return &LRU[K, V]{name: name, cache: c, ttl: ttl, now: time.Now}, nil
}

// Get returns a live entry.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	e, ok := c.cache.Get(key)
	if ok && c.ttl > 0 && c.now().After(e.expiresAt) {
		c.cache.Remove(key)
		ok = false
	}
	if !ok {
		c.misses.Add(1)
		metrics.CacheTotal.WithLabelValues(c.name, "miss").Inc()
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	metrics.CacheTotal.WithLabelValues(c.name, "hit").Inc()
	return e.value, true
}

// Set stores a value, evicting the least recently used entry when full.
func (c *LRU[K, V]) Set(key K, value V) {
	var exp time.Time
	if c.ttl > 0 {
		exp = c.now().Add(c.ttl)
	}
	c.cache.Add(key, entry[V]{value: value, expiresAt: exp})
}

// Len returns the number of cached entries, expired ones included.
func (c *LRU[K, V]) Len() int { return c.cache.Len() }

// Purge drops every entry.
func (c *LRU[K, V]) Purge() { c.cache.Purge() }

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	Size    int     `json:"size"`
	HitRate float64 `json:"hit_rate"`
}

// Stats returns the current counters.
func (c *LRU[K, V]) Stats() Stats {
	h, m := c.hits.Load(), c.misses.Load()
	var rate float64
	if h+m > 0 {
		rate = float64(h) / float64(h+m)
	}
	return Stats{Hits: h, Misses: m, Size: c.cache.Len(), HitRate: rate}
}
