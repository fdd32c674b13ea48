package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"seminar/internal/domain"
	"seminar/internal/models"
)

// CreateReservation checks room existence, reads the reservations of the room
// intersecting [Start, End), hands them to check and inserts, all inside one
// immediate transaction. Concurrent creates for the same room serialize on the
// sqlite write lock, so the loser sees the winner's row.
func (db *DB) CreateReservation(ctx context.Context, res *models.Reservation, check domain.ConflictCheck) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 1. Room must exist
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM rooms WHERE id = ?`, res.RoomID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrRoomNotFound
	}
	if err != nil {
		return storeError("failed to check room in tx", err)
	}

	// 2. Conflicting reservations
	conflicts, err := queryReservations(ctx, tx,
		`SELECT `+reservationColumns+` FROM reservations
         WHERE room_id = ? AND start_at < ? AND end_at > ?
         ORDER BY start_at ASC`,
		res.RoomID, res.End.UnixMilli(), res.Start.UnixMilli())
	if err != nil {
		return storeError("failed to check conflicts in tx", err)
	}

	if check != nil {
		if err := check(conflicts); err != nil {
			return err
		}
	}

	// 3. Insert
	res.CreatedAt = time.Now().UTC()
	row := newReservationRow(res)
	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (room_id, nickname, student_name, student_id, phone, purpose, start_at, end_at, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.RoomID, row.Nickname, row.StudentName, row.StudentID, row.Phone, row.Purpose,
		row.StartAt, row.EndAt, row.CreatedAt)
	if err != nil {
		return storeError("failed to insert reservation in tx", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return storeError("failed to commit reservation", err)
	}
	res.ID = id
	return nil
}

func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	row, err := scanReservation(db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrReservationNotFound
	}
	if err != nil {
		return nil, storeError("failed to get reservation", err)
	}
	return row.toModel(), nil
}

// DeleteReservation loads the reservation, runs check on it and deletes it in
// one transaction, returning what was deleted.
func (db *DB) DeleteReservation(ctx context.Context, id int64, check domain.RemovalCheck) (*models.Reservation, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError("failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrReservationNotFound
	}
	if err != nil {
		return nil, storeError("failed to load reservation in tx", err)
	}

	res := row.toModel()
	if check != nil {
		if err := check(res); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id); err != nil {
		return nil, storeError("failed to delete reservation in tx", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError("failed to commit reservation delete", err)
	}
	return res, nil
}

// ListRoomReservations returns reservations of the room starting in [from, to),
// ordered by start.
func (db *DB) ListRoomReservations(ctx context.Context, roomID int64, from, to time.Time) ([]*models.Reservation, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var exists int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM rooms WHERE id = ?`, roomID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, storeError("failed to check room", err)
	}

	reservations, err := queryReservations(ctx, db,
		`SELECT `+reservationColumns+` FROM reservations
         WHERE room_id = ? AND start_at >= ? AND start_at < ?
         ORDER BY start_at ASC, id ASC`,
		roomID, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, storeError("failed to list room reservations", err)
	}
	return reservations, nil
}

// ListReservations returns every reservation with its room name, ordered by start.
func (db *DB) ListReservations(ctx context.Context) ([]*models.ReservationWithRoom, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.QueryContext(ctx,
		`SELECT r.id, r.room_id, r.nickname, r.student_name, r.student_id, r.phone, r.purpose,
                r.start_at, r.end_at, r.created_at, rm.name
         FROM reservations r
         JOIN rooms rm ON rm.id = r.room_id
         ORDER BY r.start_at ASC, r.id ASC`)
	if err != nil {
		return nil, storeError("failed to list reservations", err)
	}
	defer rows.Close()

	result := []*models.ReservationWithRoom{}
	for rows.Next() {
		var row reservationRow
		var roomName string
		if err := rows.Scan(append(row.scanDest(), &roomName)...); err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		result = append(result, &models.ReservationWithRoom{Reservation: *row.toModel(), RoomName: roomName})
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("failed to list reservations", err)
	}
	return result, nil
}

func queryReservations(ctx context.Context, q querier, query string, args ...any) ([]*models.Reservation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := []*models.Reservation{}
	for rows.Next() {
		row, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, row.toModel())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}
