package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"seminar/internal/config"
	"seminar/internal/database"
	"seminar/internal/domain"
	"seminar/internal/events"
	"seminar/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestReservationLifecycleAgainstStore(t *testing.T) {
	ctx := context.Background()
	db := setupStore(t)
	logger := zerolog.New(io.Discard)

	bus := events.NewEventBus()
	var seen []string
	var mu sync.Mutex
	bus.SubscribeAll(events.ReservationEvents, func(e *events.Event) error {
		mu.Lock()
		seen = append(seen, e.Type)
		mu.Unlock()
		return nil
	})

	roomA := &models.Room{Name: "A", Capacity: 10, Available: true}
	roomB := &models.Room{Name: "B", Capacity: 4, Available: true}
	require.NoError(t, db.CreateRoom(ctx, roomA))
	require.NoError(t, db.CreateRoom(ctx, roomB))

	svc := NewReservationService(db, bus, config.ReservationConfig{}, &logger)
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day.Add(8 * time.Hour) }
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	t.Run("OverlapAndAbutting", func(t *testing.T) {
		first := sampleReservation(at(10, 0), at(11, 0))
		first.RoomID = roomA.ID
		id, err := svc.Create(ctx, first)
		require.NoError(t, err)
		assert.NotZero(t, id)

		overlapping := sampleReservation(at(10, 30), at(11, 30))
		overlapping.RoomID = roomA.ID
		_, err = svc.Create(ctx, overlapping)
		assert.ErrorIs(t, err, domain.ErrDuplicateReservation)

		abutting := sampleReservation(at(11, 0), at(12, 0))
		abutting.RoomID = roomA.ID
		_, err = svc.Create(ctx, abutting)
		require.NoError(t, err)

		// Same range in another room is independent.
		other := sampleReservation(at(10, 30), at(11, 30))
		other.RoomID = roomB.ID
		_, err = svc.Create(ctx, other)
		require.NoError(t, err)
	})

	t.Run("CancelRequiresIdentity", func(t *testing.T) {
		res := sampleReservation(at(14, 0), at(15, 0))
		res.RoomID = roomB.ID
		res.StudentID = 2024001
		res.StudentName = "Kim"
		id, err := svc.Create(ctx, res)
		require.NoError(t, err)

		assert.ErrorIs(t, svc.Cancel(ctx, id, "Lee", 2024001), domain.ErrUnauthorizedIdentity)
		_, err = db.GetReservation(ctx, id)
		require.NoError(t, err, "reservation must survive a rejected cancel")

		require.NoError(t, svc.Cancel(ctx, id, "Kim", 2024001))
		_, err = db.GetReservation(ctx, id)
		assert.ErrorIs(t, err, domain.ErrReservationNotFound)

		assert.ErrorIs(t, svc.Cancel(ctx, id, "Kim", 2024001), domain.ErrReservationNotFound)
	})

	t.Run("UnknownRoom", func(t *testing.T) {
		res := sampleReservation(at(16, 0), at(17, 0))
		res.RoomID = 999
		_, err := svc.Create(ctx, res)
		assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	})

	t.Run("RoomDeleteCascades", func(t *testing.T) {
		rooms := NewRoomService(db, nil, nil, nil, false, &logger)
		require.NoError(t, rooms.Delete(ctx, roomB.ID))

		all, err := NewQueryService(db, time.UTC).ListAll(ctx)
		require.NoError(t, err)
		for _, r := range all {
			assert.Equal(t, roomA.ID, r.RoomID)
		}
	})

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, seen, events.EventReservationCreated)
	assert.Contains(t, seen, events.EventReservationCanceled)
}

func TestConcurrentCreatesOneWinner(t *testing.T) {
	ctx := context.Background()
	db := setupStore(t)
	logger := zerolog.New(io.Discard)

	room := &models.Room{Name: "A", Capacity: 10, Available: true}
	require.NoError(t, db.CreateRoom(ctx, room))

	svc := NewReservationService(db, nil, config.ReservationConfig{RetryDelay: time.Millisecond}, &logger)
	now := time.Now()
	svc.now = func() time.Time { return now }

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := now.Add(time.Hour + time.Duration(i)*time.Minute)
			res := sampleReservation(start, start.Add(time.Hour))
			res.RoomID = room.ID
			_, err := svc.Create(ctx, res)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, domain.ErrDuplicateReservation):
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, dup)
}
