package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventstream/pulse/internal/models"
)

func TestCatalogCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewCatalogCache(NewMemory(), time.Minute)

	_, version, ok, err := c.Get(ctx, "york")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "0", version)

	msgs := []models.Message{{ID: 1, Title: "Hello", TargetAppIDs: []string{"york"}, StartDate: time.Now().UTC()}}
	require.NoError(t, c.Put(ctx, version, "york", msgs))

	got, _, ok, err := c.Get(ctx, "york")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "Hello", got[0].Title)
	assert.Equal(t, []string{"york"}, got[0].TargetAppIDs)
}

func TestCatalogCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewCatalogCache(NewMemory(), time.Minute)

	require.NoError(t, c.Put(ctx, "0", "york", []models.Message{{ID: 1}}))
	require.NoError(t, c.Invalidate(ctx))

	_, version, ok, err := c.Get(ctx, "york")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "1", version)
}

func TestCatalogCachePutUnderStaleVersionIsUnreachable(t *testing.T) {
	ctx := context.Background()
	c := NewCatalogCache(NewMemory(), time.Minute)

	_, version, _, err := c.Get(ctx, "york")
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Put(ctx, version, "york", []models.Message{{ID: 1}}))

	_, _, ok, err := c.Get(ctx, "york")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, c.Put(ctx, "", "york", nil))
}

func TestCatalogCacheEmptyListIsAHit(t *testing.T) {
	ctx := context.Background()
	c := NewCatalogCache(NewMemory(), time.Minute)

	require.NoError(t, c.Put(ctx, "0", "york", []models.Message{}))
	got, _, ok, err := c.Get(ctx, "york")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", "v", time.Second))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	now = now.Add(time.Second)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}
