package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache(8, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", []byte("v1"), time.Minute))

	value, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), value)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache(8, time.Minute)

	_, ok, err := c.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(8, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", []byte("v1"), 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	_, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire once its TTL passes")
}

func TestMemoryCacheNonPositiveTTLNotStored(t *testing.T) {
	c := NewMemoryCache(8, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", []byte("v1"), 0))

	_, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheLastWriteWins(t *testing.T) {
	c := NewMemoryCache(8, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", []byte("old"), time.Minute))
	require.NoError(t, c.Set(ctx, "k1", []byte("new"), time.Minute))

	value, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("new"), value)
}
