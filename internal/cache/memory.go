package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// memoryEntry wraps a value with its own deadline so per-call TTLs shorter
// than the LRU's eviction horizon are honored on read.
type memoryEntry struct {
	value    []byte
	deadline time.Time
}

// MemoryCache is an in-process Cache backed by an expirable LRU.
type MemoryCache struct {
	lru *expirable.LRU[string, memoryEntry]
}

// NewMemoryCache creates an in-memory cache holding at most maxEntries
// entries. maxTTL bounds how long any entry may survive regardless of
// the TTL passed to Set.
func NewMemoryCache(maxEntries int, maxTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		lru: expirable.NewLRU[string, memoryEntry](maxEntries, nil, maxTTL),
	}
}

// Get returns the cached value for key if present and unexpired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	entry, ok := c.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.deadline) {
		c.lru.Remove(key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores value under key for the given TTL.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.lru.Add(key, memoryEntry{
		value:    value,
		deadline: time.Now().Add(ttl),
	})
	return nil
}
