package application

import (
	"sync"
	"time"
)

// facetCache stores recently computed filter options so repeated facet
// queries skip a full derivation pass while the dataset and bookmark state
// remain unchanged. Keys must identify both.
type facetCache[T any] struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	clone      func(T) T
	entries    map[string]facetCacheEntry[T]
}

type facetCacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func newFacetCache[T any](ttl time.Duration, maxEntries int, now func() time.Time, clone func(T) T) *facetCache[T] {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &facetCache[T]{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		clone:      clone,
		entries:    make(map[string]facetCacheEntry[T]),
	}
}

func (c *facetCache[T]) Get(key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return zero, false
	}
	return c.clone(entry.value), true
}

func (c *facetCache[T]) Store(key string, value T) {
	if c == nil {
		return
	}
	cloned := c.clone(value)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = facetCacheEntry[T]{value: cloned, expiresAt: expiry}
}

func (c *facetCache[T]) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]facetCacheEntry[T])
	c.mu.Unlock()
}

func (c *facetCache[T]) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *facetCache[T]) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}
