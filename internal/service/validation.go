package service

import (
	"fmt"
	"time"

	"seminar/internal/config"
	"seminar/internal/domain"
	"seminar/internal/models"
)

const timeLayout = "2006-01-02 15:04"

// Window holds the legal reservation range relative to the current time.
type Window struct {
	Horizon   time.Duration
	PastGrace time.Duration
}

// DefaultWindow allows starts up to an hour ago and ends up to seven days ahead.
var DefaultWindow = Window{Horizon: models.ReservationHorizon, PastGrace: models.ReservationPastGrace}

func NewWindow(cfg config.ReservationConfig) Window {
	w := DefaultWindow
	if cfg.MaxDaysAhead > 0 {
		w.Horizon = time.Duration(cfg.MaxDaysAhead) * 24 * time.Hour
	}
	if cfg.PastGrace > 0 {
		w.PastGrace = cfg.PastGrace
	}
	return w
}

// Validate checks [start, end) against now. The first failing rule wins:
// an empty or inverted range, a start older than the grace period, an end
// already passed, then a start or end beyond the horizon. A start exactly
// PastGrace ago is accepted.
func (w Window) Validate(start, end, now time.Time) error {
	earliest := now.Add(-w.PastGrace)
	latest := now.Add(w.Horizon)

	switch {
	case !start.Before(end):
		return fmt.Errorf("%w: end %s is not after start %s", domain.ErrInvalidWindow,
			end.Format(timeLayout), start.Format(timeLayout))
	case start.Before(earliest):
		return fmt.Errorf("%w: start %s is before %s", domain.ErrInvalidWindow,
			start.Format(timeLayout), earliest.Format(timeLayout))
	case end.Before(now):
		return fmt.Errorf("%w: end %s has already passed", domain.ErrInvalidWindow, end.Format(timeLayout))
	case start.After(latest):
		return fmt.Errorf("%w: start %s is after %s", domain.ErrInvalidWindow,
			start.Format(timeLayout), latest.Format(timeLayout))
	case end.After(latest):
		return fmt.Errorf("%w: end %s is after %s", domain.ErrInvalidWindow,
			end.Format(timeLayout), latest.Format(timeLayout))
	}
	return nil
}

// CheckConflicts returns the store-side decision for a proposed [start, end):
// any existing reservation of the room intersecting it rejects the insert.
func CheckConflicts(start, end time.Time) domain.ConflictCheck {
	return func(existing []*models.Reservation) error {
		for _, res := range existing {
			if res.Overlaps(start, end) {
				return fmt.Errorf("%w: reservation %d holds %s - %s", domain.ErrDuplicateReservation,
					res.ID, res.Start.Format(timeLayout), res.End.Format(timeLayout))
			}
		}
		return nil
	}
}

// RequireIdentity allows a delete only for the student who made the reservation.
func RequireIdentity(studentName string, studentID int64) domain.RemovalCheck {
	return func(res *models.Reservation) error {
		if !res.IdentityMatches(studentName, studentID) {
			return domain.ErrUnauthorizedIdentity
		}
		return nil
	}
}
