package database

import (
	"context"
	"testing"
	"time"

	"seminar/internal/domain"
	"seminar/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	room := &models.Room{
		Name:        "Seminar 301",
		Location:    "Library 3F",
		Capacity:    12,
		Equipment:   "projector, whiteboard",
		Description: "quiet room",
		Available:   true,
	}
	require.NoError(t, db.CreateRoom(ctx, room))
	assert.NotZero(t, room.ID)
	assert.False(t, room.CreatedAt.IsZero())
	assert.NotNil(t, room.Images)

	t.Run("Get", func(t *testing.T) {
		got, err := db.GetRoom(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, room.Name, got.Name)
		assert.Equal(t, room.Location, got.Location)
		assert.Equal(t, room.Capacity, got.Capacity)
		assert.Equal(t, room.Equipment, got.Equipment)
		assert.True(t, got.Available)
		assert.Empty(t, got.Images)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := db.GetRoom(ctx, 9999)
		assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		room.Capacity = 20
		room.Available = false
		require.NoError(t, db.UpdateRoom(ctx, room))

		got, err := db.GetRoom(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, 20, got.Capacity)
		assert.False(t, got.Available)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		err := db.UpdateRoom(ctx, &models.Room{ID: 9999, Name: "ghost"})
		assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	})

	t.Run("ReplaceImages", func(t *testing.T) {
		images := []models.RoomImage{
			{Position: 0, Key: models.RoomImagePrefix(room.ID) + "0.png", URL: "https://cdn/0.png"},
			{Position: 1, Key: models.RoomImagePrefix(room.ID) + "1.jpg", URL: "https://cdn/1.jpg"},
		}
		require.NoError(t, db.ReplaceRoomImages(ctx, room.ID, images))

		got, err := db.GetRoom(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, images, got.Images)

		require.NoError(t, db.ReplaceRoomImages(ctx, room.ID, images[1:]))
		got, err = db.GetRoom(ctx, room.ID)
		require.NoError(t, err)
		assert.Len(t, got.Images, 1)

		assert.ErrorIs(t, db.ReplaceRoomImages(ctx, 9999, images), domain.ErrRoomNotFound)
	})
}

func TestListRooms(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	open := createTestRoom(t, db, "Open")
	hidden := &models.Room{Name: "Hidden", Available: false}
	require.NoError(t, db.CreateRoom(ctx, hidden))
	require.NoError(t, db.ReplaceRoomImages(ctx, open.ID, []models.RoomImage{{Position: 0, Key: "room/1/0.png", URL: "u"}}))

	all, err := db.ListRooms(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, open.ID, all[0].ID)
	assert.Len(t, all[0].Images, 1)
	assert.Empty(t, all[1].Images)

	visible, err := db.ListRooms(ctx, true)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "Open", visible[0].Name)

	count, err := db.CountRooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDeleteRoom_Cascades(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	room := createTestRoom(t, db, "Doomed")
	other := createTestRoom(t, db, "Survivor")
	require.NoError(t, db.ReplaceRoomImages(ctx, room.ID, []models.RoomImage{{Position: 0, Key: "room/1/0.png", URL: "u"}}))

	start := time.Now().Add(2 * time.Hour).Truncate(time.Minute)
	res := newTestReservation(room.ID, start, time.Hour)
	require.NoError(t, db.CreateReservation(ctx, res, allowAll))
	kept := newTestReservation(other.ID, start, time.Hour)
	require.NoError(t, db.CreateReservation(ctx, kept, allowAll))

	require.NoError(t, db.DeleteRoom(ctx, room.ID))

	_, err := db.GetRoom(ctx, room.ID)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	_, err = db.GetReservation(ctx, res.ID)
	assert.ErrorIs(t, err, domain.ErrReservationNotFound)
	_, err = db.GetReservation(ctx, kept.ID)
	assert.NoError(t, err)

	var images int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM room_images WHERE room_id = ?`, room.ID).Scan(&images))
	assert.Zero(t, images)

	assert.ErrorIs(t, db.DeleteRoom(ctx, room.ID), domain.ErrRoomNotFound)
}
