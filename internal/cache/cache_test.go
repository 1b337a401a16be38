package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryClient(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, Config{Driver: "memory", Prefix: "t:"})
	require.NoError(t, err)
	require.Equal(t, "memory", c.Driver())

	_, err = c.Get(ctx, "missing")
	require.True(t, IsNotFound(err))

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", v)

	ok, err := c.SetNX(ctx, "k", "other", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Delete(ctx, "k"))
	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	require.False(t, exists)

	ok, err = c.SetNX(ctx, "k", "fresh", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryGetDel(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("p:")
	require.NoError(t, c.Set(ctx, "state", "google", time.Minute))

	v, err := c.GetDel(ctx, "state")
	require.NoError(t, err)
	require.Equal(t, "google", v)

	_, err = c.GetDel(ctx, "state")
	require.True(t, IsNotFound(err))
	exists, _ := c.Exists(ctx, "state")
	require.False(t, exists)
}

func TestMemoryClientExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")
	require.NoError(t, c.Set(ctx, "short", "x", 20*time.Millisecond))

	require.Eventually(t, func() bool {
		ok, _ := c.Exists(ctx, "short")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), Config{Driver: "memcached"})
	require.Error(t, err)
}
