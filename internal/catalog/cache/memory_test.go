package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	c := NewMemoryCache(DefaultConfig())
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	_, err = c.Get(ctx, "other")
	assert.True(t, IsCacheMiss(err))
}

func TestMemoryCache_Expiration(t *testing.T) {
	c := NewMemoryCache(DefaultConfig())
	defer c.Close()
	ctx := context.Background()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "forever", []byte("2"), -1))

	now = now.Add(time.Hour)

	_, err := c.Get(ctx, "short")
	assert.True(t, IsCacheMiss(err))

	got, err := c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	a := NewMemoryCache(Config{Prefix: "a:"})
	defer a.Close()
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "x", []byte("1"), 0))
	require.NoError(t, a.Set(ctx, "y", []byte("2"), 0))

	require.NoError(t, a.Delete(ctx, "x"))
	_, err := a.Get(ctx, "x")
	assert.True(t, IsCacheMiss(err))

	require.NoError(t, a.Clear(ctx))
	_, err = a.Get(ctx, "y")
	assert.True(t, IsCacheMiss(err))
}

func TestMemoryCache_CanceledContext(t *testing.T) {
	c := NewMemoryCache(DefaultConfig())
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, c.Set(ctx, "k", []byte("v"), 0), context.Canceled)
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}
