// Package migrate holds the one-off schema migrations for the clinic
// database, the applied-migration tracker, and the file backup helpers.
package migrate

import (
	"database/sql"
	"fmt"
	"time"
)

const migrationsTable = "schema_migrations"

// ensureTrackerTable creates the schema_migrations table if missing.
// Only the write path (Apply) calls it; the read helpers below must not
// mutate a database they are merely reporting on.
func ensureTrackerTable(db *sql.DB) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    name TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`, migrationsTable)

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("ensure %s table: %w", migrationsTable, err)
	}
	return nil
}

// TrackerExists reports whether the schema_migrations table is present,
// without creating it.
func TrackerExists(db *sql.DB) (bool, error) {
	var n int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
		migrationsTable,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("look up %s table: %w", migrationsTable, err)
	}
	return n > 0, nil
}

// IsApplied reports whether the named migration has already run. A database
// without a tracker table has applied nothing.
func IsApplied(db *sql.DB, name string) (bool, error) {
	exists, err := TrackerExists(db)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	var appliedAt sql.NullTime
	query := fmt.Sprintf(`SELECT applied_at FROM %s WHERE name = ?`, migrationsTable)
	err = db.QueryRow(query, name).Scan(&appliedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check migration %s: %w", name, err)
	}
	return appliedAt.Valid, nil
}

// AppliedAt returns the applied timestamps for every recorded migration.
// A database that has never been migrated yields an empty map.
func AppliedAt(db *sql.DB) (map[string]time.Time, error) {
	exists, err := TrackerExists(db)
	if err != nil {
		return nil, err
	}
	if !exists {
		return map[string]time.Time{}, nil
	}

	query := fmt.Sprintf(`SELECT name, applied_at FROM %s`, migrationsTable)
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", migrationsTable, err)
	}
	defer rows.Close()

	applied := make(map[string]time.Time)
	for rows.Next() {
		var name string
		var at time.Time
		if err := rows.Scan(&name, &at); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", migrationsTable, err)
		}
		applied[name] = at
	}
	return applied, rows.Err()
}

// markApplied records the migration inside the migration's own transaction,
// so a rolled-back migration never leaves a tracker row behind.
func markApplied(tx *sql.Tx, name string) error {
	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s(name, applied_at) VALUES(?, ?)`, migrationsTable)
	if _, err := tx.Exec(query, name, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark migration %s applied: %w", name, err)
	}
	return nil
}
