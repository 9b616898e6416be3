package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenExisting(t *testing.T) {
	t.Run("refuses a missing file", func(t *testing.T) {
		_, err := OpenExisting(filepath.Join(t.TempDir(), "nope.db"))
		require.ErrorIs(t, err, ErrDatabaseMissing)
	})

	t.Run("opens an existing file", func(t *testing.T) {
		_, dbPath := newTestDB(t)
		db, err := OpenExisting(dbPath)
		require.NoError(t, err)
		defer db.Close()

		var n int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM patients`).Scan(&n))
	})
}

func TestBackupFile(t *testing.T) {
	_, dbPath := newTestDB(t)
	backupDir := filepath.Join(t.TempDir(), "backups")

	backupPath, err := BackupFile(dbPath, backupDir)
	require.NoError(t, err)
	assert.DirExists(t, backupDir)
	assert.FileExists(t, backupPath)

	src, err := os.ReadFile(dbPath)
	require.NoError(t, err)
	dst, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, src, dst, "backup must be a byte-identical copy")

	t.Run("missing database", func(t *testing.T) {
		_, err := BackupFile(filepath.Join(t.TempDir(), "absent.db"), backupDir)
		require.ErrorIs(t, err, ErrDatabaseMissing)
	})
}

func TestRestoreFile(t *testing.T) {
	_, dbPath := newTestDB(t)

	backupPath, err := BackupFile(dbPath, t.TempDir())
	require.NoError(t, err)

	// Clobber the live file, then restore.
	require.NoError(t, os.WriteFile(dbPath, []byte("garbage"), 0o644))
	require.NoError(t, RestoreFile(backupPath, dbPath))

	db, err := OpenExisting(dbPath)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM patients`).Scan(&n))
}

func TestVacuum(t *testing.T) {
	db, _ := newTestDB(t)

	// Grow then shrink the file so VACUUM has something to reclaim.
	for i := 0; i < 500; i++ {
		_, err := db.Exec(`INSERT INTO patients (id, name, created_at) VALUES (?, 'bulk', '2021-01-01')`,
			fmt.Sprintf("bulk-%04d", i))
		require.NoError(t, err)
	}
	_, err := db.Exec(`DELETE FROM patients`)
	require.NoError(t, err)

	stats, err := Vacuum(db)
	require.NoError(t, err)
	assert.NotEmpty(t, stats.JournalMode)
	assert.Positive(t, stats.PageSize)
	assert.LessOrEqual(t, stats.PagesAfter, stats.PagesBefore)
	assert.GreaterOrEqual(t, stats.BytesReclaimed, int64(0))
}
