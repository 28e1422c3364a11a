// Package cache provides a bounded in-memory cache with per-entry expiry
package cache

import (
	"sync"
	"time"
)

// Cache maps keys to values that expire after a TTL. When full, the least
// recently used entry is evicted. The zero value is not usable; call New.
type Cache[K comparable, V any] struct {
	items      map[K]*item[V]
	mutex      sync.Mutex
	defaultTTL time.Duration
	maxSize    int
	now        func() time.Time
}

type item[V any] struct {
	value     V
	expiresAt time.Time
	lastUsed  time.Time
}

// New creates a cache holding at most maxSize entries
func New[K comparable, V any](defaultTTL time.Duration, maxSize int) *Cache[K, V] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache[K, V]{
		items:      make(map[K]*item[V]),
		defaultTTL: defaultTTL,
		maxSize:    maxSize,
		now:        time.Now,
	}
}

// Set stores a value with the default TTL
func (c *Cache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value that expires after ttl
func (c *Cache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		c.removeExpired(now)
		if len(c.items) >= c.maxSize {
			c.evictLRU()
		}
	}

	c.items[key] = &item[V]{
		value:     value,
		expiresAt: now.Add(ttl),
		lastUsed:  now,
	}
}

// Get returns the value stored under key unless it has expired
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var zero V
	it, exists := c.items[key]
	if !exists {
		return zero, false
	}

	now := c.now()
	if now.After(it.expiresAt) {
		delete(c.items, key)
		return zero, false
	}

	it.lastUsed = now
	return it.value, true
}

// Delete removes key
func (c *Cache[K, V]) Delete(key K) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, key)
}

// Len returns the number of stored entries, expired ones included
func (c *Cache[K, V]) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return len(c.items)
}

func (c *Cache[K, V]) removeExpired(now time.Time) {
	for key, it := range c.items {
		if now.After(it.expiresAt) {
			delete(c.items, key)
		}
	}
}

func (c *Cache[K, V]) evictLRU() {
	var oldestKey K
	var oldestTime time.Time
	first := true

	for key, it := range c.items {
		if first || it.lastUsed.Before(oldestTime) {
			oldestKey = key
			oldestTime = it.lastUsed
			first = false
		}
	}

	if !first {
		delete(c.items, oldestKey)
	}
}
