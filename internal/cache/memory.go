package cache

import (
	"context"
	"sync"
	"time"
)

// memoryCache is the in-process fallback tier. Semantics match the Redis
// tier except Expire, which is a documented no-op: entries live for the
// process lifetime only.
type memoryCache struct {
	mu     sync.RWMutex
	values map[string]string
	lists  map[string][]string
}

// NewMemoryCache returns an empty in-process cache.
func NewMemoryCache() Cache {
	return &memoryCache{
		values: make(map[string]string),
		lists:  make(map[string][]string),
	}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.values[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return val, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *memoryCache) Push(_ context.Context, key, value string, maxLen int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := append([]string{value}, c.lists[key]...)
	if maxLen > 0 && int64(len(list)) > maxLen {
		list = list[:maxLen]
	}
	c.lists[key] = list
	return nil
}

func (c *memoryCache) List(_ context.Context, key string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list := c.lists[key]
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}

func (c *memoryCache) Expire(_ context.Context, _ string, _ time.Duration) error {
	// No TTL support in-process; accepted limitation of the fallback tier.
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.values, key)
		delete(c.lists, key)
	}
	return nil
}
