package cache

import (
	"sync"
	"time"
)

// Memory is a small in-process TTL cache for responses that tolerate
// staleness, like the canned graph sample.
type Memory struct {
	mu    sync.RWMutex
	items map[string]item
}

type item struct {
	value     any
	expiresAt time.Time
}

// NewMemory creates a new in-memory cache
func NewMemory() *Memory {
	cache := &Memory{
		items: make(map[string]item),
	}

	go cache.cleanupExpired()

	return cache
}

// Get retrieves a value from cache
func (c *Memory) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.items[key]
	if !exists || time.Now().After(entry.expiresAt) {
		return nil, false
	}

	return entry.value, true
}

// Set stores a value in cache with a TTL
func (c *Memory) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

// cleanupExpired periodically removes expired items
func (c *Memory) cleanupExpired() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for key, entry := range c.items {
			if now.After(entry.expiresAt) {
				delete(c.items, key)
			}
		}
		c.mu.Unlock()
	}
}
