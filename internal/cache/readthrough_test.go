package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadThrough_LoadsOnceUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	loads := 0
	backing := map[string]string{"p1": "v1"}

	c := NewReadThrough[string, string](10, func(_ context.Context, key string) (string, error) {
		loads++
		return backing[key], nil
	})

	v, err := c.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	v, err = c.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)
	assert.Equal(t, 1, loads)

	backing["p1"] = "v2"
	c.Invalidate("p1")

	v, err = c.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
	assert.Equal(t, 2, loads)

	st := c.Stats()
	assert.Equal(t, int64(1), st.Invalidations)
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, 1, st.Len)
}

func TestReadThrough_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	errBoom := errors.New("boom")
	fail := true

	c := NewReadThrough[string, int](10, func(context.Context, string) (int, error) {
		if fail {
			return 0, errBoom
		}
		return 7, nil
	})

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, c.Len())

	fail = false
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, c.Len())
}

func TestReadThrough_InvalidateDuringLoadSkipsCaching(t *testing.T) {
	ctx := context.Background()
	var c *ReadThrough[string, string]
	calls := 0

	c = NewReadThrough[string, string](10, func(context.Context, string) (string, error) {
		calls++
		if calls == 1 {
			// A write lands while the first load is in progress
			c.Invalidate("k")
			return "stale", nil
		}
		return "fresh", nil
	})

	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "stale", v)
	assert.Equal(t, 0, c.Len(), "stale load must not be cached")

	v, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}
