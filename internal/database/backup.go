package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"seminar/internal/config"
	"seminar/internal/metrics"

	"github.com/rs/zerolog"
)

const (
	snapshotPrefix = "seminar_"
	snapshotSuffix = ".db"
	snapshotLayout = "20060102_150405.000"
)

// BackupService takes periodic snapshots of the reservation store and prunes
// expired ones.
type BackupService struct {
	db     *DB
	config config.BackupConfig
	logger *zerolog.Logger
	now    func() time.Time
}

func NewBackupService(db *DB, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	return &BackupService{db: db, config: cfg, logger: logger, now: time.Now}
}

// Start blocks until ctx is done. The first snapshot is taken immediately.
func (s *BackupService) Start(ctx context.Context) {
	switch {
	case !s.config.Enabled:
		s.logger.Info().Msg("Backup service is disabled")
		return
	case s.db == nil || s.db.Path() == memoryPath:
		s.logger.Warn().Msg("In-memory database cannot be backed up, backup service not started")
		return
	}

	interval := s.interval()
	s.logger.Info().Dur("interval", interval).Str("dir", s.config.StoragePath).Msg("Backup service started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.runOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *BackupService) interval() time.Duration {
	if s.config.Schedule == "" {
		return 24 * time.Hour
	}
	d, err := time.ParseDuration(s.config.Schedule)
	if err != nil || d <= 0 {
		s.logger.Warn().Err(err).Str("schedule", s.config.Schedule).Msg("Invalid backup schedule, using 24h")
		return 24 * time.Hour
	}
	return d
}

func (s *BackupService) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	path, err := s.PerformBackup(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Backup failed")
		return
	}
	removed := s.CleanupOldBackups()
	s.logger.Info().Str("path", path).Int("pruned", removed).Msg("Backup completed")
}

// PerformBackup writes a snapshot with VACUUM INTO, checks that it opens as a
// healthy database and returns its path. A snapshot that fails the check is
// removed.
func (s *BackupService) PerformBackup(ctx context.Context) (path string, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "failed"
		}
		metrics.IncBackup(outcome)
	}()

	if err := os.MkdirAll(s.config.StoragePath, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	path = filepath.Join(s.config.StoragePath, snapshotPrefix+s.now().Format(snapshotLayout)+snapshotSuffix)
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", path, err)
	}

	if err := verifySnapshot(ctx, path); err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			s.logger.Warn().Err(rmErr).Str("path", path).Msg("Failed to remove broken snapshot")
		}
		return "", err
	}
	return path, nil
}

func verifySnapshot(ctx context.Context, path string) error {
	snap, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer snap.Close()

	var result string
	if err := snap.QueryRowContext(ctx, `PRAGMA quick_check`).Scan(&result); err != nil {
		return fmt.Errorf("check snapshot: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("snapshot %s failed quick_check: %s", path, result)
	}
	return nil
}

type snapshot struct {
	name    string
	modTime time.Time
}

// snapshots lists backup files newest first. Unrelated files are ignored.
func (s *BackupService) snapshots() ([]snapshot, error) {
	entries, err := os.ReadDir(s.config.StoragePath)
	if err != nil {
		return nil, err
	}

	var out []snapshot
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, snapshot{name: name, modTime: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].modTime.After(out[j].modTime) })
	return out, nil
}

// CleanupOldBackups removes snapshots older than the retention period and
// returns how many were deleted. The newest snapshot is always kept.
func (s *BackupService) CleanupOldBackups() int {
	if s.config.RetentionDays <= 0 {
		return 0
	}

	snaps, err := s.snapshots()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list backups for cleanup")
		return 0
	}

	cutoff := s.now().AddDate(0, 0, -s.config.RetentionDays)
	removed := 0
	for i, snap := range snaps {
		if i == 0 || !snap.modTime.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.config.StoragePath, snap.name)); err != nil {
			s.logger.Warn().Err(err).Str("file", snap.name).Msg("Failed to delete old backup")
			continue
		}
		removed++
	}
	return removed
}
