// Package store provides the caches backing the live feature assembly layer.
// Both implementations are fail-open: a cache problem never fails a lookup,
// it just forces a fresh provider call.
package store

import (
	"context"
	"sync"
	"time"
)

// Cache is a byte-value cache with per-entry TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is a concurrency-safe in-process Cache, used when no redis is
// configured. Capacity is enforced by dropping expired entries first and
// refusing new inserts past maxEntries otherwise.
type MemoryCache struct {
	mu         sync.RWMutex
	data       map[string]memoryEntry
	maxEntries int
}

// NewMemoryCache creates a MemoryCache. maxEntries <= 0 means unlimited.
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{
		data:       make(map[string]memoryEntry),
		maxEntries: maxEntries,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.value, true
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEntries > 0 && len(c.data) >= c.maxEntries {
		c.evictExpiredLocked()
		if len(c.data) >= c.maxEntries {
			if _, exists := c.data[key]; !exists {
				return
			}
		}
	}

	c.data[key] = memoryEntry{
		value:   value,
		expires: time.Now().Add(ttl),
	}
}

func (c *MemoryCache) evictExpiredLocked() {
	now := time.Now()
	for key, entry := range c.data {
		if now.After(entry.expires) {
			delete(c.data, key)
		}
	}
}

// Len reports the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
