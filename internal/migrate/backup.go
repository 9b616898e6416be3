package migrate

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrDatabaseMissing is returned when the database file does not exist.
var ErrDatabaseMissing = errors.New("database file does not exist")

// OpenExisting opens an existing SQLite database, refusing to create one.
// sql.Open would silently create an empty file, which for maintenance
// tooling is always a mistyped path.
func OpenExisting(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseMissing, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return db, nil
}

// BackupFile copies the database file into backupDir under a timestamped
// name and returns the copy's path. The directory is created if needed.
func BackupFile(dbPath, backupDir string) (string, error) {
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrDatabaseMissing, dbPath)
		}
		return "", fmt.Errorf("stat %s: %w", dbPath, err)
	}

	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	base := filepath.Base(dbPath)
	ext := filepath.Ext(base)
	stamp := time.Now().Format("20060102-150405")
	name := fmt.Sprintf("%s-%s%s", base[:len(base)-len(ext)], stamp, ext)
	backupPath := filepath.Join(backupDir, name)

	if err := copyFile(dbPath, backupPath); err != nil {
		return "", fmt.Errorf("copy %s to %s: %w", dbPath, backupPath, err)
	}
	return backupPath, nil
}

// RestoreFile copies a backup over the live database file.
func RestoreFile(backupPath, dbPath string) error {
	if err := copyFile(backupPath, dbPath); err != nil {
		return fmt.Errorf("restore %s from %s: %w", dbPath, backupPath, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// VacuumStats reports database page usage before and after a VACUUM.
type VacuumStats struct {
	JournalMode    string `json:"journal_mode"`
	PagesBefore    int64  `json:"pages_before"`
	FreeBefore     int64  `json:"free_before"`
	PagesAfter     int64  `json:"pages_after"`
	FreeAfter      int64  `json:"free_after"`
	PageSize       int64  `json:"page_size"`
	BytesReclaimed int64  `json:"bytes_reclaimed"`
}

// Vacuum runs VACUUM and returns page counts from before and after.
// VACUUM cannot run inside a transaction, so this takes the *sql.DB.
func Vacuum(db *sql.DB) (VacuumStats, error) {
	var stats VacuumStats

	if err := db.QueryRow(`PRAGMA journal_mode`).Scan(&stats.JournalMode); err != nil {
		return stats, fmt.Errorf("journal_mode: %w", err)
	}
	if err := db.QueryRow(`PRAGMA page_size`).Scan(&stats.PageSize); err != nil {
		return stats, fmt.Errorf("page_size: %w", err)
	}
	if err := db.QueryRow(`PRAGMA page_count`).Scan(&stats.PagesBefore); err != nil {
		return stats, fmt.Errorf("page_count: %w", err)
	}
	if err := db.QueryRow(`PRAGMA freelist_count`).Scan(&stats.FreeBefore); err != nil {
		return stats, fmt.Errorf("freelist_count: %w", err)
	}

	if _, err := db.Exec(`VACUUM`); err != nil {
		return stats, fmt.Errorf("vacuum: %w", err)
	}

	if err := db.QueryRow(`PRAGMA page_count`).Scan(&stats.PagesAfter); err != nil {
		return stats, fmt.Errorf("page_count after vacuum: %w", err)
	}
	if err := db.QueryRow(`PRAGMA freelist_count`).Scan(&stats.FreeAfter); err != nil {
		return stats, fmt.Errorf("freelist_count after vacuum: %w", err)
	}

	stats.BytesReclaimed = (stats.PagesBefore - stats.PagesAfter) * stats.PageSize
	if stats.BytesReclaimed < 0 {
		stats.BytesReclaimed = 0
	}
	return stats, nil
}
