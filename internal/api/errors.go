package api

import (
	"errors"
	"net/http"

	"seminar/internal/domain"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

// errorMappings is checked in order with errors.Is.
var errorMappings = []errorMapping{
	{domain.ErrValidation, http.StatusBadRequest, "invalid request"},
	{domain.ErrInvalidWindow, http.StatusBadRequest, "reservation time is invalid"},
	{domain.ErrDuplicateReservation, http.StatusConflict, "time slot is already reserved"},
	{domain.ErrRoomNotFound, http.StatusNotFound, "room not found"},
	{domain.ErrReservationNotFound, http.StatusNotFound, "reservation not found"},
	{domain.ErrUnauthorizedIdentity, http.StatusForbidden, "student name or id does not match"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "wrong password"},
	{domain.ErrTransientStore, http.StatusServiceUnavailable, "temporarily unavailable, retry later"},
}

func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, "internal error"
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	event := s.logger.Debug()
	if status >= http.StatusInternalServerError {
		event = s.logger.Error()
	}
	event.Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("request_id", requestIDFrom(r.Context())).
		Int("status", status).
		Msg("request failed")
	writeError(w, status, message)
}
