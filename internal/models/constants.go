package models

import "time"

const (
	// ReservationHorizon is how far into the future a reservation may reach.
	ReservationHorizon = 7 * 24 * time.Hour

	// ReservationPastGrace is how far in the past a reservation may start.
	ReservationPastGrace = time.Hour

	// UpcomingDays is the length of the per-room listing window.
	UpcomingDays = 7

	// PhonePattern is the accepted mobile number format.
	PhonePattern = `^(010|011|016|017|018|019)-\d{3,4}-\d{4}$`

	// DefaultQueryTimeout bounds a single store operation.
	DefaultQueryTimeout = 5 * time.Second

	// TimePrecision is the resolution reservation times are stored at.
	TimePrecision = time.Millisecond

	// DefaultCreateRetries is the number of extra attempts on a transient store failure.
	DefaultCreateRetries = 3

	// RoomCacheTTL is how long the public room listing stays cached.
	RoomCacheTTL = 10 * time.Minute

	// DefaultMaxUploadBytes limits request bodies on multipart endpoints.
	DefaultMaxUploadBytes = 32 << 20
)
