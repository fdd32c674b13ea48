package database

import (
	"time"

	"seminar/internal/models"
)

// roomRow mirrors the rooms table.
type roomRow struct {
	ID          int64
	Name        string
	Location    string
	Capacity    int
	Equipment   string
	Description string
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const roomColumns = `id, name, location, capacity, equipment, description, available, created_at, updated_at`

func scanRoom(s rowScanner) (roomRow, error) {
	var r roomRow
	err := s.Scan(&r.ID, &r.Name, &r.Location, &r.Capacity, &r.Equipment, &r.Description,
		&r.Available, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (r roomRow) toModel(images []models.RoomImage) *models.Room {
	if images == nil {
		images = []models.RoomImage{}
	}
	return &models.Room{
		ID:          r.ID,
		Name:        r.Name,
		Location:    r.Location,
		Capacity:    r.Capacity,
		Equipment:   r.Equipment,
		Description: r.Description,
		Available:   r.Available,
		Images:      images,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// reservationRow mirrors the reservations table. Times are unix milliseconds.
type reservationRow struct {
	ID          int64
	RoomID      int64
	Nickname    string
	StudentName string
	StudentID   int64
	Phone       string
	Purpose     string
	StartAt     int64
	EndAt       int64
	CreatedAt   time.Time
}

const reservationColumns = `id, room_id, nickname, student_name, student_id, phone, purpose, start_at, end_at, created_at`

func newReservationRow(res *models.Reservation) reservationRow {
	return reservationRow{
		ID:          res.ID,
		RoomID:      res.RoomID,
		Nickname:    res.Nickname,
		StudentName: res.StudentName,
		StudentID:   res.StudentID,
		Phone:       res.Phone,
		Purpose:     res.Purpose,
		StartAt:     res.Start.UnixMilli(),
		EndAt:       res.End.UnixMilli(),
		CreatedAt:   res.CreatedAt,
	}
}

func (r *reservationRow) scanDest() []any {
	return []any{&r.ID, &r.RoomID, &r.Nickname, &r.StudentName, &r.StudentID, &r.Phone,
		&r.Purpose, &r.StartAt, &r.EndAt, &r.CreatedAt}
}

func scanReservation(s rowScanner) (reservationRow, error) {
	var r reservationRow
	err := s.Scan(r.scanDest()...)
	return r, err
}

func (r reservationRow) toModel() *models.Reservation {
	return &models.Reservation{
		ID:          r.ID,
		RoomID:      r.RoomID,
		Nickname:    r.Nickname,
		StudentName: r.StudentName,
		StudentID:   r.StudentID,
		Phone:       r.Phone,
		Purpose:     r.Purpose,
		Start:       time.UnixMilli(r.StartAt).UTC(),
		End:         time.UnixMilli(r.EndAt).UTC(),
		CreatedAt:   r.CreatedAt,
	}
}
