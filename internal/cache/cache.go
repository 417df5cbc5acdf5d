// Package cache provides a small time-bounded in-memory cache. One
// instance is created per external data source, each with its own TTL.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	fetchedAt time.Time
}

// Cache is a TTL cache keyed by string. Get never triggers a fetch; on a
// miss the caller performs the fetch and calls Put with the result. Failed
// fetches are never stored, so a transient provider outage cannot poison
// the cache. Concurrent Get/Put on the same key are safe; Put is
// last-writer-wins.
type Cache[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry[V]
}

// New creates a cache whose entries expire ttl after they were fetched.
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the cached value for key if it is still fresh.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Since(e.fetchedAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value for key, stamped with the current time.
func (c *Cache[V]) Put(key string, value V) {
	c.PutAt(key, value, time.Now())
}

// PutAt stores value for key with an explicit fetch time.
func (c *Cache[V]) PutAt(key string, value V, fetchedAt time.Time) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, fetchedAt: fetchedAt}
	c.mu.Unlock()
}

// Evict removes key from the cache.
func (c *Cache[V]) Evict(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
