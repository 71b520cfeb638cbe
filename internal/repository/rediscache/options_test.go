package rediscache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bbachelard/Option/internal/domain"
)

func setupTestCache(t *testing.T) (*OptionsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cache := NewOptionsCache(client, 5*time.Minute)
	return cache, mr
}

func sampleOptions() []domain.Product {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return []domain.Product{
		{
			ID:        "opt-1",
			Ref:       "OPT-ENGRAVING",
			Title:     "Engraving",
			IsOnline:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func TestOptionsCache_Miss(t *testing.T) {
	cache, _ := setupTestCache(t)

	options, hit, err := cache.Get(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, options)
}

func TestOptionsCache_SetThenGet(t *testing.T) {
	cache, _ := setupTestCache(t)

	want := sampleOptions()
	require.NoError(t, cache.Set(context.Background(), "prod-1", want))

	got, hit, err := cache.Get(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.True(t, hit)
	require.Len(t, got, 1)
	assert.Equal(t, "opt-1", got[0].ID)
	assert.Equal(t, "Engraving", got[0].Title)
}

func TestOptionsCache_EmptyListIsCacheable(t *testing.T) {
	cache, _ := setupTestCache(t)

	// A vetoed product legitimately has zero options; the empty result is
	// still a hit.
	require.NoError(t, cache.Set(context.Background(), "prod-1", []domain.Product{}))

	got, hit, err := cache.Get(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Empty(t, got)
}

func TestOptionsCache_Invalidate(t *testing.T) {
	cache, mr := setupTestCache(t)

	data, err := json.Marshal(sampleOptions())
	require.NoError(t, err)
	require.NoError(t, mr.Set("options:available:prod-1", string(data)))

	require.NoError(t, cache.Invalidate(context.Background(), "prod-1"))

	_, hit, err := cache.Get(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestOptionsCache_EntryExpires(t *testing.T) {
	cache, mr := setupTestCache(t)

	require.NoError(t, cache.Set(context.Background(), "prod-1", sampleOptions()))

	mr.FastForward(10 * time.Minute)

	_, hit, err := cache.Get(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.False(t, hit)
}
