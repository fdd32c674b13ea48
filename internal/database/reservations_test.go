package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"seminar/internal/domain"
	"seminar/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReservation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	room := createTestRoom(t, db, "Room A")
	start := time.Now().Add(3 * time.Hour).Truncate(time.Minute)

	t.Run("Inserts", func(t *testing.T) {
		res := newTestReservation(room.ID, start, time.Hour)
		require.NoError(t, db.CreateReservation(ctx, res, allowAll))
		assert.NotZero(t, res.ID)
		assert.False(t, res.CreatedAt.IsZero())

		got, err := db.GetReservation(ctx, res.ID)
		require.NoError(t, err)
		assert.True(t, res.Start.Equal(got.Start))
		assert.True(t, res.End.Equal(got.End))
		assert.Equal(t, res.StudentID, got.StudentID)
		assert.Equal(t, res.Phone, got.Phone)
	})

	t.Run("PassesIntersectingRowsToCheck", func(t *testing.T) {
		var seen []*models.Reservation
		check := func(conflicts []*models.Reservation) error {
			seen = conflicts
			return domain.ErrDuplicateReservation
		}

		res := newTestReservation(room.ID, start.Add(30*time.Minute), time.Hour)
		err := db.CreateReservation(ctx, res, check)
		assert.ErrorIs(t, err, domain.ErrDuplicateReservation)
		assert.Zero(t, res.ID)
		require.Len(t, seen, 1)
		assert.True(t, seen[0].Start.Equal(start))
	})

	t.Run("AbuttingIsNotIntersecting", func(t *testing.T) {
		check := func(conflicts []*models.Reservation) error {
			if len(conflicts) > 0 {
				return errors.New("unexpected conflicts")
			}
			return nil
		}
		before := newTestReservation(room.ID, start.Add(-time.Hour), time.Hour)
		require.NoError(t, db.CreateReservation(ctx, before, check))
		after := newTestReservation(room.ID, start.Add(time.Hour), time.Hour)
		require.NoError(t, db.CreateReservation(ctx, after, check))
	})

	t.Run("OtherRoomIsIgnored", func(t *testing.T) {
		other := createTestRoom(t, db, "Room B")
		check := func(conflicts []*models.Reservation) error {
			assert.Empty(t, conflicts)
			return nil
		}
		require.NoError(t, db.CreateReservation(ctx, newTestReservation(other.ID, start, time.Hour), check))
	})

	t.Run("MissingRoom", func(t *testing.T) {
		err := db.CreateReservation(ctx, newTestReservation(9999, start, time.Hour), allowAll)
		assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	})
}

func TestDeleteReservation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	room := createTestRoom(t, db, "Room A")
	start := time.Now().Add(time.Hour).Truncate(time.Minute)

	res := newTestReservation(room.ID, start, time.Hour)
	require.NoError(t, db.CreateReservation(ctx, res, allowAll))

	t.Run("CheckRejects", func(t *testing.T) {
		_, err := db.DeleteReservation(ctx, res.ID, func(*models.Reservation) error {
			return domain.ErrUnauthorizedIdentity
		})
		assert.ErrorIs(t, err, domain.ErrUnauthorizedIdentity)

		_, err = db.GetReservation(ctx, res.ID)
		assert.NoError(t, err)
	})

	t.Run("Deletes", func(t *testing.T) {
		deleted, err := db.DeleteReservation(ctx, res.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, res.ID, deleted.ID)

		_, err = db.GetReservation(ctx, res.ID)
		assert.ErrorIs(t, err, domain.ErrReservationNotFound)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := db.DeleteReservation(ctx, res.ID, nil)
		assert.ErrorIs(t, err, domain.ErrReservationNotFound)
	})
}

func TestListRoomReservations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	room := createTestRoom(t, db, "Room A")
	other := createTestRoom(t, db, "Room B")

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	for _, r := range []*models.Reservation{
		newTestReservation(room.ID, day.Add(14*time.Hour), time.Hour),
		newTestReservation(room.ID, day.Add(9*time.Hour), time.Hour),
		newTestReservation(room.ID, day.Add(-2*time.Hour), time.Hour),  // before window
		newTestReservation(room.ID, day.AddDate(0, 0, 7), time.Hour),   // at window end
		newTestReservation(other.ID, day.Add(10*time.Hour), time.Hour), // other room
	} {
		require.NoError(t, db.CreateReservation(ctx, r, allowAll))
	}

	got, err := db.ListRoomReservations(ctx, room.ID, day, day.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Start.Equal(day.Add(9*time.Hour)))
	assert.True(t, got[1].Start.Equal(day.Add(14*time.Hour)))

	_, err = db.ListRoomReservations(ctx, 9999, day, day.AddDate(0, 0, 7))
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	empty := createTestRoom(t, db, "Room C")
	got, err = db.ListRoomReservations(ctx, empty.ID, day, day.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListReservations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	a := createTestRoom(t, db, "Room A")
	b := createTestRoom(t, db, "Room B")

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.CreateReservation(ctx, newTestReservation(b.ID, day.Add(12*time.Hour), time.Hour), allowAll))
	require.NoError(t, db.CreateReservation(ctx, newTestReservation(a.ID, day.Add(8*time.Hour), time.Hour), allowAll))

	got, err := db.ListReservations(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Room A", got[0].RoomName)
	assert.Equal(t, "Room B", got[1].RoomName)
	assert.Equal(t, "Kim", got[0].StudentName)
}
