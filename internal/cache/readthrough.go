package cache

import (
	"context"
	"sync"
)

// Loader fetches the authoritative value for a key
type Loader[K comparable, V any] func(ctx context.Context, key K) (V, error)

// ReadThrough serves reads from an LRU and falls back to a loader on a miss.
// Writers call Invalidate after a successful remote write; a load that started
// before the invalidation is not cached.
type ReadThrough[K comparable, V any] struct {
	lru  *LRU[K, V]
	load Loader[K, V]

	mu            sync.Mutex
	epoch         map[K]uint64
	invalidations int64
}

// NewReadThrough creates a read-through cache with the given capacity
func NewReadThrough[K comparable, V any](capacity int, load Loader[K, V]) *ReadThrough[K, V] {
	return &ReadThrough[K, V]{
		lru:   NewLRU[K, V](capacity),
		load:  load,
		epoch: make(map[K]uint64),
	}
}

// Get returns the cached value or loads, caches and returns it. Load errors
// are returned as-is and nothing is cached.
func (c *ReadThrough[K, V]) Get(ctx context.Context, key K) (V, error) {
	if v, ok := c.lru.Get(key); ok {
		return v, nil
	}

	c.mu.Lock()
	started := c.epoch[key]
	c.mu.Unlock()

	v, err := c.load(ctx, key)
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	if c.epoch[key] == started {
		c.lru.Put(key, v)
	}
	c.mu.Unlock()

	return v, nil
}

// Invalidate drops key so the next Get reloads it
func (c *ReadThrough[K, V]) Invalidate(key K) {
	c.mu.Lock()
	c.epoch[key]++
	c.invalidations++
	c.lru.Delete(key)
	c.mu.Unlock()
}

// Len returns the number of cached entries
func (c *ReadThrough[K, V]) Len() int {
	return c.lru.Len()
}

// HitRate returns the cache hit rate as a percentage
func (c *ReadThrough[K, V]) HitRate() float64 {
	return c.lru.HitRate()
}

// Stats returns the LRU counters together with the invalidation count
func (c *ReadThrough[K, V]) Stats() Stats {
	st := c.lru.Stats()
	c.mu.Lock()
	st.Invalidations = c.invalidations
	c.mu.Unlock()
	return st
}
