package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"seminar/internal/config"
	"seminar/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	tempDir := t.TempDir()
	logger := zerolog.Nop()

	db, err := NewDB(filepath.Join(tempDir, "source.db"), &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.CreateRoom(ctx, &models.Room{Name: "Seminar A", Available: true}))

	storagePath := filepath.Join(tempDir, "backups")
	cfg := config.BackupConfig{
		Enabled:       true,
		StoragePath:   storagePath,
		RetentionDays: 1,
	}
	s := NewBackupService(db, cfg, &logger)

	var backupPath string
	t.Run("PerformBackup", func(t *testing.T) {
		backupPath, err = s.PerformBackup(ctx)
		require.NoError(t, err)

		files, err := os.ReadDir(storagePath)
		require.NoError(t, err)
		assert.Len(t, files, 1)

		copyDB, err := sql.Open("sqlite3", backupPath)
		require.NoError(t, err)
		defer copyDB.Close()

		var count int
		require.NoError(t, copyDB.QueryRow(`SELECT COUNT(*) FROM rooms`).Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("CleanupOldBackups", func(t *testing.T) {
		oldFile := filepath.Join(storagePath, snapshotPrefix+"old.db")
		require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0o644))
		unrelated := filepath.Join(storagePath, "notes.txt")
		require.NoError(t, os.WriteFile(unrelated, []byte("keep"), 0o644))

		oldTime := time.Now().AddDate(0, 0, -2)
		require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))
		require.NoError(t, os.Chtimes(unrelated, oldTime, oldTime))

		assert.Equal(t, 1, s.CleanupOldBackups())

		_, err := os.Stat(oldFile)
		assert.True(t, os.IsNotExist(err))
		_, err = os.Stat(backupPath)
		assert.NoError(t, err)
		_, err = os.Stat(unrelated)
		assert.NoError(t, err)
	})
}

func TestBackupService_CleanupKeepsNewest(t *testing.T) {
	logger := zerolog.Nop()
	storagePath := t.TempDir()
	s := NewBackupService(nil, config.BackupConfig{StoragePath: storagePath, RetentionDays: 1}, &logger)

	older := filepath.Join(storagePath, snapshotPrefix+"1.db")
	newer := filepath.Join(storagePath, snapshotPrefix+"2.db")
	for i, path := range []string{older, newer} {
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		stamp := time.Now().AddDate(0, 0, -10+i)
		require.NoError(t, os.Chtimes(path, stamp, stamp))
	}

	assert.Equal(t, 1, s.CleanupOldBackups())
	_, err := os.Stat(older)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(newer)
	assert.NoError(t, err, "newest snapshot survives even past retention")
}

func TestBackupService_Interval(t *testing.T) {
	logger := zerolog.Nop()
	for schedule, want := range map[string]time.Duration{
		"":     24 * time.Hour,
		"6h":   6 * time.Hour,
		"soon": 24 * time.Hour,
		"-1h":  24 * time.Hour,
	} {
		s := NewBackupService(nil, config.BackupConfig{Schedule: schedule}, &logger)
		assert.Equal(t, want, s.interval(), schedule)
	}
}

func TestBackupService_Disabled(_ *testing.T) {
	logger := zerolog.Nop()
	s := NewBackupService(nil, config.BackupConfig{Enabled: false}, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx)
}

func TestBackupService_InMemorySkipped(t *testing.T) {
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	defer db.Close()

	storagePath := filepath.Join(t.TempDir(), "backups")
	s := NewBackupService(db, config.BackupConfig{Enabled: true, StoragePath: storagePath}, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx)

	_, err = os.Stat(storagePath)
	assert.True(t, os.IsNotExist(err))
}
