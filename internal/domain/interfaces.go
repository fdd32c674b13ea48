package domain

import (
	"context"
	"time"

	"seminar/internal/models"
)

// ConflictCheck decides whether a reservation may be inserted given the
// reservations of the same room that intersect its range.
type ConflictCheck func(conflicts []*models.Reservation) error

// RemovalCheck decides whether a loaded reservation may be deleted.
type RemovalCheck func(res *models.Reservation) error

type ReservationStore interface {
	// CreateReservation runs the room lookup, the conflict read, check and the
	// insert in a single transaction. ID and CreatedAt are set on success.
	CreateReservation(ctx context.Context, res *models.Reservation, check ConflictCheck) error
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	// DeleteReservation loads, checks and deletes in a single transaction.
	// A nil check deletes unconditionally.
	DeleteReservation(ctx context.Context, id int64, check RemovalCheck) (*models.Reservation, error)
	ListRoomReservations(ctx context.Context, roomID int64, from, to time.Time) ([]*models.Reservation, error)
	ListReservations(ctx context.Context) ([]*models.ReservationWithRoom, error)
}

type RoomStore interface {
	CreateRoom(ctx context.Context, room *models.Room) error
	UpdateRoom(ctx context.Context, room *models.Room) error
	DeleteRoom(ctx context.Context, id int64) error
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	ListRooms(ctx context.Context, onlyAvailable bool) ([]*models.Room, error)
	ReplaceRoomImages(ctx context.Context, roomID int64, images []models.RoomImage) error
	CountRooms(ctx context.Context) (int, error)
}

type ImageStore interface {
	// Upload stores data under key and returns its public URL.
	Upload(ctx context.Context, key string, data []byte) (string, error)
	Delete(ctx context.Context, keys []string) error
}

type RoomCache interface {
	// GetRooms returns nil, nil on a cache miss.
	GetRooms(ctx context.Context) ([]*models.Room, error)
	SetRooms(ctx context.Context, rooms []*models.Room) error
	Invalidate(ctx context.Context) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
