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

func (db *DB) CreateRoom(ctx context.Context, room *models.Room) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO rooms (name, location, capacity, equipment, description, available, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		room.Name,
		room.Location,
		room.Capacity,
		room.Equipment,
		room.Description,
		room.Available,
		now,
		now,
	)
	if err != nil {
		return storeError("failed to create room", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	room.ID = id
	room.CreatedAt = now
	room.UpdatedAt = now
	if room.Images == nil {
		room.Images = []models.RoomImage{}
	}
	return nil
}

// UpdateRoom overwrites the descriptive fields of an existing room. Images are
// left alone; see ReplaceRoomImages.
func (db *DB) UpdateRoom(ctx context.Context, room *models.Room) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	query := `UPDATE rooms SET name = ?, location = ?, capacity = ?, equipment = ?, description = ?,
                     available = ?, updated_at = ?
              WHERE id = ?`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		room.Name,
		room.Location,
		room.Capacity,
		room.Equipment,
		room.Description,
		room.Available,
		now,
		room.ID,
	)
	if err != nil {
		return storeError("failed to update room", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrRoomNotFound
	}
	room.UpdatedAt = now
	return nil
}

// DeleteRoom removes the room; its images and reservations go with it.
func (db *DB) DeleteRoom(ctx context.Context, id int64) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	result, err := db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return storeError("failed to delete room", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

func (db *DB) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	row, err := scanRoom(db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, storeError("failed to get room", err)
	}

	images, err := db.roomImages(ctx, &id)
	if err != nil {
		return nil, err
	}
	return row.toModel(images[id]), nil
}

// ListRooms returns rooms ordered by id, optionally only the publicly visible ones.
func (db *DB) ListRooms(ctx context.Context, onlyAvailable bool) ([]*models.Room, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + roomColumns + ` FROM rooms`
	if onlyAvailable {
		query += ` WHERE available = 1`
	}
	query += ` ORDER BY id ASC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, storeError("failed to list rooms", err)
	}
	defer rows.Close()

	var roomRows []roomRow
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		roomRows = append(roomRows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("failed to list rooms", err)
	}

	images, err := db.roomImages(ctx, nil)
	if err != nil {
		return nil, err
	}

	rooms := make([]*models.Room, 0, len(roomRows))
	for _, r := range roomRows {
		rooms = append(rooms, r.toModel(images[r.ID]))
	}
	return rooms, nil
}

// roomImages loads images grouped by room, for one room when roomID is set.
func (db *DB) roomImages(ctx context.Context, roomID *int64) (map[int64][]models.RoomImage, error) {
	query := `SELECT room_id, position, object_key, url FROM room_images`
	var args []any
	if roomID != nil {
		query += ` WHERE room_id = ?`
		args = append(args, *roomID)
	}
	query += ` ORDER BY room_id, position`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("failed to load room images", err)
	}
	defer rows.Close()

	images := make(map[int64][]models.RoomImage)
	for rows.Next() {
		var id int64
		var img models.RoomImage
		if err := rows.Scan(&id, &img.Position, &img.Key, &img.URL); err != nil {
			return nil, fmt.Errorf("failed to scan room image: %w", err)
		}
		images[id] = append(images[id], img)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("failed to load room images", err)
	}
	return images, nil
}

// ReplaceRoomImages swaps the stored image references of a room for images.
func (db *DB) ReplaceRoomImages(ctx context.Context, roomID int64, images []models.RoomImage) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM rooms WHERE id = ?`, roomID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrRoomNotFound
	}
	if err != nil {
		return storeError("failed to check room in tx", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM room_images WHERE room_id = ?`, roomID); err != nil {
		return storeError("failed to clear room images", err)
	}

	for _, img := range images {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO room_images (room_id, position, object_key, url) VALUES (?, ?, ?, ?)`,
			roomID, img.Position, img.Key, img.URL)
		if err != nil {
			return storeError("failed to insert room image", err)
		}
	}

	_, err = tx.ExecContext(ctx, `UPDATE rooms SET updated_at = ? WHERE id = ?`, time.Now().UTC(), roomID)
	if err != nil {
		return storeError("failed to touch room", err)
	}

	if err := tx.Commit(); err != nil {
		return storeError("failed to commit room images", err)
	}
	return nil
}

func (db *DB) CountRooms(ctx context.Context) (int, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms`).Scan(&count); err != nil {
		return 0, storeError("failed to count rooms", err)
	}
	return count, nil
}
