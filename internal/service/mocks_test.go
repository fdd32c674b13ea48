package service

import (
	"context"
	"time"

	"seminar/internal/domain"
	"seminar/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockReservationStore struct {
	mock.Mock
}

func (m *mockReservationStore) CreateReservation(ctx context.Context, res *models.Reservation, check domain.ConflictCheck) error {
	return m.Called(ctx, res, check).Error(0)
}

func (m *mockReservationStore) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockReservationStore) DeleteReservation(ctx context.Context, id int64, check domain.RemovalCheck) (*models.Reservation, error) {
	args := m.Called(ctx, id, check)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockReservationStore) ListRoomReservations(ctx context.Context, roomID int64, from, to time.Time) ([]*models.Reservation, error) {
	args := m.Called(ctx, roomID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}

func (m *mockReservationStore) ListReservations(ctx context.Context) ([]*models.ReservationWithRoom, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ReservationWithRoom), args.Error(1)
}

type mockRoomStore struct {
	mock.Mock
}

func (m *mockRoomStore) CreateRoom(ctx context.Context, room *models.Room) error {
	return m.Called(ctx, room).Error(0)
}

func (m *mockRoomStore) UpdateRoom(ctx context.Context, room *models.Room) error {
	return m.Called(ctx, room).Error(0)
}

func (m *mockRoomStore) DeleteRoom(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRoomStore) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *mockRoomStore) ListRooms(ctx context.Context, onlyAvailable bool) ([]*models.Room, error) {
	args := m.Called(ctx, onlyAvailable)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Room), args.Error(1)
}

func (m *mockRoomStore) ReplaceRoomImages(ctx context.Context, roomID int64, images []models.RoomImage) error {
	return m.Called(ctx, roomID, images).Error(0)
}

func (m *mockRoomStore) CountRooms(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockImageStore struct {
	mock.Mock
}

func (m *mockImageStore) Upload(ctx context.Context, key string, data []byte) (string, error) {
	args := m.Called(ctx, key, data)
	return args.String(0), args.Error(1)
}

func (m *mockImageStore) Delete(ctx context.Context, keys []string) error {
	return m.Called(ctx, keys).Error(0)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetRooms(ctx context.Context) ([]*models.Room, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Room), args.Error(1)
}

func (m *mockCache) SetRooms(ctx context.Context, rooms []*models.Room) error {
	return m.Called(ctx, rooms).Error(0)
}

func (m *mockCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}
