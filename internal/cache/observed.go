package cache

import (
	"context"
	"time"
)

// Observed wraps a Cache and reports each lookup outcome to observe.
// A lookup counts as a hit only when the entry was present and unexpired.
func Observed(inner Cache, observe func(hit bool)) Cache {
	return &observedCache{inner: inner, observe: observe}
}

type observedCache struct {
	inner   Cache
	observe func(hit bool)
}

func (c *observedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, ok, err := c.inner.Get(ctx, key)
	c.observe(ok && err == nil)
	return value, ok, err
}

func (c *observedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.inner.Set(ctx, key, value, ttl)
}
