package repository

import (
	"context"
	"testing"
	"time"

	"seminar/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoomCache(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	cache := NewMemoryRoomCache(time.Minute)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	got, err := cache.GetRooms(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	rooms := []*models.Room{{ID: 1, Name: "A"}}
	require.NoError(t, cache.SetRooms(ctx, rooms))

	got, err = cache.GetRooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, rooms, got)

	// callers may not mutate the cached slice
	got[0] = &models.Room{ID: 99}
	again, _ := cache.GetRooms(ctx)
	assert.Equal(t, int64(1), again[0].ID)

	now = now.Add(2 * time.Minute)
	got, err = cache.GetRooms(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, cache.SetRooms(ctx, nil))
	got, _ = cache.GetRooms(ctx)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	require.NoError(t, cache.Invalidate(ctx))
	got, _ = cache.GetRooms(ctx)
	assert.Nil(t, got)
}
