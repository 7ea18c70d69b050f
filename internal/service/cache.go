package service

import (
	"sync"
	"time"
)

// Cache is a small in-memory read cache with a fixed TTL. A zero TTL turns
// it into a no-op.
type Cache struct {
	data map[string]*cacheEntry
	ttl  time.Duration
	now  func() time.Time
	mu   sync.RWMutex
}

type cacheEntry struct {
	value      interface{}
	expiration time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.now().After(entry.expiration) {
		c.Delete(key)
		return nil, false
	}

	return entry.value, true
}

func (c *Cache) Set(key string, value interface{}) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = &cacheEntry{
		value:      value,
		expiration: c.now().Add(c.ttl),
	}
}

func (c *Cache) Delete(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.data, key)
	}
}
