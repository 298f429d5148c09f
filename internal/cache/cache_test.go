package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petrolhub/backend/internal/domain"
)

func TestMemoryInsightCacheExpires(t *testing.T) {
	c := NewMemoryInsightCache()
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", &domain.InsightResponse{Date: "2025-03-14", Insights: []string{"a"}}, time.Minute))

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, got.Insights)

	got.Insights[0] = "mutated"
	again, _, _ := c.Get(ctx, "k")
	assert.Equal(t, "a", again.Insights[0])

	now = now.Add(time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNoopInsightCacheNeverHits(t *testing.T) {
	var c InsightCache = NoopInsightCache{}
	require.NoError(t, c.Set(context.Background(), "k", &domain.InsightResponse{}, time.Minute))
	_, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
