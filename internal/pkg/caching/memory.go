package caching

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/cache/v9"
)

// CacheMemory is a process-local Cache used by tests and single-node tools.
// Values round-trip through JSON so hits behave like the redis-backed cache.
type CacheMemory struct {
	mu    sync.RWMutex
	items map[string]memoryItem
}

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

func NewCacheMemory() *CacheMemory {
	return &CacheMemory{items: map[string]memoryItem{}}
}

func (c *CacheMemory) Get(ctx context.Context, key string, target any) error {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(item.expiresAt) {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(item.data, target)
}

func (c *CacheMemory) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.items[key] = memoryItem{data: b, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *CacheMemory) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}
