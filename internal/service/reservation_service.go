package service

import (
	"context"
	"errors"
	"time"

	"seminar/internal/config"
	"seminar/internal/domain"
	"seminar/internal/events"
	"seminar/internal/metrics"
	"seminar/internal/models"
	"seminar/internal/retry"

	"github.com/rs/zerolog"
)

// ReservationService creates and removes reservations. Conflict detection
// runs inside the store transaction so concurrent creates for one room
// cannot both succeed.
type ReservationService struct {
	store    domain.ReservationStore
	eventBus domain.EventPublisher
	window   Window
	retry    retry.Policy
	now      func() time.Time
	logger   *zerolog.Logger
}

func NewReservationService(store domain.ReservationStore, eventBus domain.EventPublisher, cfg config.ReservationConfig, logger *zerolog.Logger) *ReservationService {
	return &ReservationService{
		store:    store,
		eventBus: eventBus,
		window:   NewWindow(cfg),
		retry: retry.Policy{
			MaxRetries:    cfg.MaxRetries,
			InitialDelay:  cfg.RetryDelay,
			MaxDelay:      time.Second,
			BackoffFactor: 2,
		},
		now:    time.Now,
		logger: logger,
	}
}

// Create validates the window, then atomically checks for overlaps and
// inserts. Transient store failures are retried; the new id is returned.
func (s *ReservationService) Create(ctx context.Context, res *models.Reservation) (int64, error) {
	// The store keeps milliseconds; judge the window that will be stored.
	res.Start = res.Start.Truncate(models.TimePrecision)
	res.End = res.End.Truncate(models.TimePrecision)

	if err := s.window.Validate(res.Start, res.End, s.now()); err != nil {
		metrics.IncReservation("create", outcome(err))
		return 0, err
	}

	check := CheckConflicts(res.Start, res.End)
	err := s.retry.Do(ctx,
		func() error { return s.store.CreateReservation(ctx, res, check) },
		func(err error) bool { return errors.Is(err, domain.ErrTransientStore) },
		func(attempt int, err error) {
			metrics.IncStoreRetry()
			s.logger.Warn().Err(err).Int("attempt", attempt).Int64("room_id", res.RoomID).Msg("retrying reservation insert")
		},
	)
	metrics.IncReservation("create", outcome(err))
	if err != nil {
		return 0, err
	}

	s.publishEvent(events.EventReservationCreated, res, "requester")
	return res.ID, nil
}

// Cancel deletes a reservation on behalf of the student who made it.
// Name and student id must both match the stored ones.
func (s *ReservationService) Cancel(ctx context.Context, id int64, studentName string, studentID int64) error {
	res, err := s.store.DeleteReservation(ctx, id, RequireIdentity(studentName, studentID))
	metrics.IncReservation("cancel", outcome(err))
	if err != nil {
		return err
	}

	s.publishEvent(events.EventReservationCanceled, res, "requester")
	return nil
}

// ForceDelete removes a reservation without an identity check.
func (s *ReservationService) ForceDelete(ctx context.Context, id int64) error {
	res, err := s.store.DeleteReservation(ctx, id, nil)
	metrics.IncReservation("force_delete", outcome(err))
	if err != nil {
		return err
	}

	s.publishEvent(events.EventReservationDeleted, res, "admin")
	return nil
}

func (s *ReservationService) publishEvent(eventType string, res *models.Reservation, changedBy string) {
	if s.eventBus == nil {
		return
	}

	payload := events.ReservationEventPayload{
		ReservationID: res.ID,
		RoomID:        res.RoomID,
		Nickname:      res.Nickname,
		Start:         res.Start,
		End:           res.End,
		ChangedBy:     changedBy,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Int64("reservation_id", res.ID).Msg("publish reservation event")
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidWindow):
		return "invalid_window"
	case errors.Is(err, domain.ErrDuplicateReservation):
		return "duplicate"
	case errors.Is(err, domain.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, domain.ErrReservationNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUnauthorizedIdentity):
		return "identity_mismatch"
	case errors.Is(err, domain.ErrTransientStore):
		return "transient"
	default:
		return "error"
	}
}
