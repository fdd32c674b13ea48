package service

import (
	"context"
	"time"

	"seminar/internal/domain"
	"seminar/internal/models"
)

// QueryService answers the read-only reservation listings.
type QueryService struct {
	store domain.ReservationStore
	loc   *time.Location
	days  int
	now   func() time.Time
}

func NewQueryService(store domain.ReservationStore, loc *time.Location) *QueryService {
	if loc == nil {
		loc = time.Local
	}
	return &QueryService{store: store, loc: loc, days: models.UpcomingDays, now: time.Now}
}

// ListUpcomingForRoom returns reservations of the room starting between
// local midnight today and midnight UpcomingDays later, ordered by start.
func (s *QueryService) ListUpcomingForRoom(ctx context.Context, roomID int64) ([]*models.Reservation, error) {
	from, to := s.upcomingRange()
	return s.store.ListRoomReservations(ctx, roomID, from, to)
}

func (s *QueryService) ListAll(ctx context.Context) ([]*models.ReservationWithRoom, error) {
	return s.store.ListReservations(ctx)
}

func (s *QueryService) upcomingRange() (time.Time, time.Time) {
	now := s.now().In(s.loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	return from, from.AddDate(0, 0, s.days)
}
