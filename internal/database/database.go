package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"seminar/internal/domain"
	"seminar/internal/models"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const memoryPath = ":memory:"

// DB is the sqlite-backed room and reservation store.
type DB struct {
	*sql.DB
	path         string
	queryTimeout time.Duration
	busyTimeout  time.Duration
	logger       *zerolog.Logger
}

type Option func(*DB)

// WithQueryTimeout bounds every store operation.
func WithQueryTimeout(d time.Duration) Option {
	return func(db *DB) {
		if d > 0 {
			db.queryTimeout = d
		}
	}
}

// WithBusyTimeout sets how long sqlite waits for the write lock before reporting busy.
func WithBusyTimeout(d time.Duration) Option {
	return func(db *DB) {
		if d > 0 {
			db.busyTimeout = d
		}
	}
}

func NewDB(path string, logger *zerolog.Logger, opts ...Option) (*DB, error) {
	db := &DB{
		path:         path,
		queryTimeout: models.DefaultQueryTimeout,
		busyTimeout:  models.DefaultQueryTimeout,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(db)
	}

	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", db.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == memoryPath {
		// every connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
	}
	db.DB = sqlDB

	ctx, cancel := db.withTimeout(context.Background())
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.createTables(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return db, nil
}

// dsn enables foreign keys for the cascade, waits on a busy database and
// makes every transaction BEGIN IMMEDIATE so the conflict read already holds
// the write lock.
func (db *DB) dsn() string {
	params := url.Values{}
	params.Set("_foreign_keys", "1")
	params.Set("_busy_timeout", strconv.FormatInt(db.busyTimeout.Milliseconds(), 10))
	params.Set("_txlock", "immediate")
	if db.path != memoryPath {
		params.Set("_journal_mode", "WAL")
	}
	return db.path + "?" + params.Encode()
}

func (db *DB) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS rooms (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            location TEXT NOT NULL DEFAULT '',
            capacity INTEGER NOT NULL DEFAULT 0,
            equipment TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            available BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS room_images (
            room_id INTEGER NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
            position INTEGER NOT NULL,
            object_key TEXT NOT NULL,
            url TEXT NOT NULL,
            PRIMARY KEY (room_id, position)
        )`,
		// start_at/end_at are unix milliseconds; end_at is exclusive
		`CREATE TABLE IF NOT EXISTS reservations (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            room_id INTEGER NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
            nickname TEXT NOT NULL,
            student_name TEXT NOT NULL,
            student_id INTEGER NOT NULL,
            phone TEXT NOT NULL,
            purpose TEXT NOT NULL DEFAULT '',
            start_at INTEGER NOT NULL,
            end_at INTEGER NOT NULL,
            created_at DATETIME NOT NULL,
            CHECK (start_at < end_at)
        )`,

		`CREATE INDEX IF NOT EXISTS idx_rooms_available ON rooms(available)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_room_start ON reservations(room_id, start_at)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_start ON reservations(start_at)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.queryTimeout)
}

// Path returns the database file the store was opened with.
func (db *DB) Path() string {
	return db.path
}

// storeError wraps err with the operation and marks busy, locked and timed out
// operations as transient.
func storeError(op string, err error) error {
	if isTransient(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrTransientStore, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isTransient(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return errors.Is(err, context.DeadlineExceeded)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}
