package cache

import (
	"context"
	"strings"
	"time"
	"trip-search-service/internal/ports"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// In-process ResultCache: a size-bounded LRU whose entries expire after a
// single TTL fixed at construction. The per-call ttl is ignored.
type MemoryResultCache struct {
	lru *expirable.LRU[string, []byte]
}

func NewMemoryResultCache(size int, ttl time.Duration) *MemoryResultCache {
	if size <= 0 {
		size = 1024
	}
	return &MemoryResultCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (c *MemoryResultCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	return v, nil
}

func (c *MemoryResultCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.lru.Add(key, value)
	return nil
}

func (c *MemoryResultCache) InvalidatePrefix(_ context.Context, prefix string) (int, error) {
	removed := 0
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) && c.lru.Remove(k) {
			removed++
		}
	}
	return removed, nil
}

func (c *MemoryResultCache) Len() int { return c.lru.Len() }
