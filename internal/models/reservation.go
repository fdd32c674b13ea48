package models

import "time"

type Reservation struct {
	ID          int64     `json:"id"`
	RoomID      int64     `json:"room_id"`
	Nickname    string    `json:"nickname"`
	StudentName string    `json:"student_name"`
	StudentID   int64     `json:"student_id"`
	Phone       string    `json:"phone"`
	Purpose     string    `json:"purpose"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"` // exclusive
	CreatedAt   time.Time `json:"created_at"`
}

// Overlaps reports whether the reservation intersects the half-open range [start, end).
// Ranges that only touch at an endpoint do not overlap.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.Start.Before(end) && r.End.After(start)
}

// IdentityMatches reports whether the requester identity equals the one stored
// with the reservation.
func (r *Reservation) IdentityMatches(studentName string, studentID int64) bool {
	return r.StudentName == studentName && r.StudentID == studentID
}

// ReservationWithRoom is the administrative view of a reservation.
type ReservationWithRoom struct {
	Reservation
	RoomName string `json:"room_name"`
}
