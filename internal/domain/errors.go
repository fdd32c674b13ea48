package domain

import "errors"

var (
	// ErrInvalidWindow is returned when the reservation time range is illegal.
	ErrInvalidWindow = errors.New("invalid reservation window")
	// ErrDuplicateReservation is returned when the range overlaps an existing reservation of the room.
	ErrDuplicateReservation = errors.New("reservation overlaps an existing one")
	ErrRoomNotFound         = errors.New("room not found")
	ErrReservationNotFound  = errors.New("reservation not found")
	// ErrUnauthorizedIdentity is returned when a cancel request names a different student.
	ErrUnauthorizedIdentity = errors.New("student name or id does not match")
	ErrUnauthorized         = errors.New("wrong admin password")
	// ErrTransientStore marks store failures worth retrying (busy/locked database, timeouts).
	ErrTransientStore = errors.New("transient store failure")
	ErrValidation     = errors.New("invalid input")
)
