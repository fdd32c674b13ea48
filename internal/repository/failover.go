package repository

import (
	"context"
	"sync/atomic"
	"time"

	"seminar/internal/domain"
	"seminar/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverRoomCache uses primary (Redis) until it fails, then serves from
// fallback and retries primary once per recoveryInterval.
type FailoverRoomCache struct {
	primary   domain.RoomCache
	fallback  domain.RoomCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nanos
}

func NewFailoverRoomCache(primary, fallback domain.RoomCache, logger *zerolog.Logger) *FailoverRoomCache {
	return &FailoverRoomCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverRoomCache) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary room cache failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverRoomCache) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	return time.Since(time.Unix(0, r.lastCheck.Load())) > recoveryInterval
}

func (r *FailoverRoomCache) GetRooms(ctx context.Context) ([]*models.Room, error) {
	if r.usePrimary() {
		rooms, err := r.primary.GetRooms(ctx)
		if err == nil {
			if r.isDown.Swap(false) {
				r.logger.Info().Msg("Primary room cache recovered")
			}
			return rooms, nil
		}
		r.markDown(err)
	}

	return r.fallback.GetRooms(ctx)
}

func (r *FailoverRoomCache) SetRooms(ctx context.Context, rooms []*models.Room) error {
	if r.usePrimary() {
		err := r.primary.SetRooms(ctx, rooms)
		if err == nil {
			r.isDown.Store(false)
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetRooms(ctx, rooms)
}

// Invalidate clears both layers so a recovered primary never serves a stale listing.
func (r *FailoverRoomCache) Invalidate(ctx context.Context) error {
	fallbackErr := r.fallback.Invalidate(ctx)
	if err := r.primary.Invalidate(ctx); err != nil {
		if !r.isDown.Load() {
			r.markDown(err)
		}
	}
	return fallbackErr
}
