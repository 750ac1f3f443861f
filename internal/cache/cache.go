// Package cache provides the TTL'd result cache used by the search engine.
// Callers choose a backing store (in-process LRU or Redis) at wiring time.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented cache with per-entry TTL.
// Entries expire by age; staleness is harmless for search results, so
// implementations may serve a concurrently overwritten entry (last write wins).
type Cache interface {
	// Get returns the cached value for key and whether it was present
	// and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for the given TTL. A non-positive TTL
	// means the entry is not stored.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
