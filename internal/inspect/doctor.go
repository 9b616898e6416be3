package inspect

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/odontoware/dentops/internal/migrate"
	"github.com/odontoware/dentops/pkg/types"
)

// Check statuses.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// Check is one doctor finding.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Fix     string `json:"fix,omitempty"`
}

// DoctorResult is the full report for one database.
type DoctorResult struct {
	Database  string  `json:"database"`
	Checks    []Check `json:"checks"`
	OverallOK bool    `json:"overall_ok"`
}

// baselineTables are the tables every migrated clinic database must have.
var baselineTables = []string{"patients", "dentists", "appointments", "treatments"}

// largeFreelistRatio is the freelist share above which doctor suggests
// running VACUUM.
const largeFreelistRatio = 0.2

// Doctor runs the health checks against the configured database.
// It returns a report rather than an error for expected problems; only
// unexpected I/O failures surface as errors.
func Doctor(cfg types.Config) (DoctorResult, error) {
	result := DoctorResult{Database: cfg.Database}

	// Everything else needs an open database.
	db, err := migrate.OpenExisting(cfg.Database)
	if err != nil {
		result.Checks = append(result.Checks, Check{
			Name:    "Database file",
			Status:  StatusError,
			Message: fmt.Sprintf("cannot open %s: %v", cfg.Database, err),
			Fix:     "check the database path in config.yaml or pass --db",
		})
		return result, nil
	}
	defer db.Close()

	result.Checks = append(result.Checks, Check{
		Name:    "Database file",
		Status:  StatusOK,
		Message: fmt.Sprintf("%s opens", cfg.Database),
	})

	result.Checks = append(result.Checks, checkMigrations(db))
	result.Checks = append(result.Checks, checkBaselineTables(db))
	result.Checks = append(result.Checks, checkOrphans(db)...)
	result.Checks = append(result.Checks, checkJournalMode(db))
	result.Checks = append(result.Checks, checkFreelist(db))
	result.Checks = append(result.Checks, checkBackups(cfg.BackupDir))
	result.Checks = append(result.Checks, checkApplication(cfg.AppBaseURL)...)

	result.OverallOK = true
	for _, c := range result.Checks {
		if c.Status == StatusError {
			result.OverallOK = false
		}
	}
	return result, nil
}

func checkMigrations(db *sql.DB) Check {
	// Doctor only reads; the tracker table is created by the migrate
	// command, so its absence is itself a finding.
	exists, err := migrate.TrackerExists(db)
	if err != nil {
		return Check{
			Name:    "Migrations",
			Status:  StatusError,
			Message: fmt.Sprintf("cannot read schema_migrations: %v", err),
		}
	}
	if !exists {
		return Check{
			Name:    "Migrations",
			Status:  StatusWarning,
			Message: "schema_migrations table missing; no migrations have run",
			Fix:     "run 'dentops migrate --all'",
		}
	}

	statuses, err := migrate.StatusAll(db)
	if err != nil {
		return Check{
			Name:    "Migrations",
			Status:  StatusError,
			Message: fmt.Sprintf("cannot read schema_migrations: %v", err),
		}
	}

	pending := 0
	for _, s := range statuses {
		if !s.Applied {
			pending++
		}
	}
	if pending > 0 {
		return Check{
			Name:    "Migrations",
			Status:  StatusWarning,
			Message: fmt.Sprintf("%d of %d migrations pending", pending, len(statuses)),
			Fix:     "run 'dentops migrate --all'",
		}
	}
	return Check{
		Name:    "Migrations",
		Status:  StatusOK,
		Message: fmt.Sprintf("all %d migrations applied", len(statuses)),
	}
}

func checkBaselineTables(db *sql.DB) Check {
	var missing []string
	for _, table := range baselineTables {
		if _, err := Schema(db, table); err != nil {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return Check{
			Name:    "Schema",
			Status:  StatusError,
			Message: fmt.Sprintf("missing tables: %v", missing),
			Fix:     "this does not look like a clinic database; check the path",
		}
	}
	return Check{
		Name:    "Schema",
		Status:  StatusOK,
		Message: "all clinic tables present",
	}
}

// checkOrphans looks for rows whose parent was deleted outside the app.
func checkOrphans(db *sql.DB) []Check {
	queries := []struct {
		name  string
		query string
		fix   string
	}{
		{
			name: "Orphaned appointments",
			query: `SELECT COUNT(*) FROM appointments a
                WHERE NOT EXISTS (SELECT 1 FROM patients p WHERE p.id = a.patient_id)`,
			fix: "delete the rows or restore the missing patients from a backup",
		},
		{
			name: "Orphaned treatments",
			query: `SELECT COUNT(*) FROM treatments t
                WHERE NOT EXISTS (SELECT 1 FROM appointments a WHERE a.id = t.appointment_id)`,
			fix: "delete the rows or restore the missing appointments from a backup",
		},
	}

	var checks []Check
	for _, q := range queries {
		var n int64
		if err := db.QueryRow(q.query).Scan(&n); err != nil {
			// Table may not exist yet on an unmigrated database; the
			// migrations check already flags that.
			continue
		}
		check := Check{Name: q.name, Status: StatusOK, Message: "none"}
		if n > 0 {
			check.Status = StatusError
			check.Message = fmt.Sprintf("%d rows reference missing parents", n)
			check.Fix = q.fix
		}
		checks = append(checks, check)
	}
	return checks
}

func checkJournalMode(db *sql.DB) Check {
	var mode string
	if err := db.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		return Check{Name: "Journal mode", Status: StatusError, Message: err.Error()}
	}
	// The application runs with WAL; anything else usually means the file
	// was copied around with a stray tool.
	if mode != "wal" {
		return Check{
			Name:    "Journal mode",
			Status:  StatusWarning,
			Message: fmt.Sprintf("journal_mode is %q, application expects wal", mode),
			Fix:     "run 'PRAGMA journal_mode=WAL' or let the application reopen the file",
		}
	}
	return Check{Name: "Journal mode", Status: StatusOK, Message: "wal"}
}

func checkFreelist(db *sql.DB) Check {
	var pages, free int64
	if err := db.QueryRow(`PRAGMA page_count`).Scan(&pages); err != nil {
		return Check{Name: "Free pages", Status: StatusError, Message: err.Error()}
	}
	if err := db.QueryRow(`PRAGMA freelist_count`).Scan(&free); err != nil {
		return Check{Name: "Free pages", Status: StatusError, Message: err.Error()}
	}

	if pages > 0 && float64(free)/float64(pages) > largeFreelistRatio {
		return Check{
			Name:    "Free pages",
			Status:  StatusWarning,
			Message: fmt.Sprintf("%d of %d pages free", free, pages),
			Fix:     "run 'dentops vacuum'",
		}
	}
	return Check{
		Name:    "Free pages",
		Status:  StatusOK,
		Message: fmt.Sprintf("%d of %d pages free", free, pages),
	}
}

// appProbeTimeout bounds the application reachability check so doctor
// stays fast when the app is down.
const appProbeTimeout = 3 * time.Second

// checkApplication pings the running clinic application. Deployments that
// leave app.base_url unset get no check at all.
func checkApplication(baseURL string) []Check {
	if baseURL == "" {
		return nil
	}

	client := &http.Client{Timeout: appProbeTimeout}
	resp, err := client.Get(baseURL)
	if err != nil {
		return []Check{{
			Name:    "Application",
			Status:  StatusWarning,
			Message: fmt.Sprintf("%s not reachable: %v", baseURL, err),
			Fix:     "start the clinic application or fix app.base_url",
		}}
	}
	resp.Body.Close()

	return []Check{{
		Name:    "Application",
		Status:  StatusOK,
		Message: fmt.Sprintf("%s responds with %d", baseURL, resp.StatusCode),
	}}
}

// staleBackupAge is how old the newest backup may be before doctor warns.
const staleBackupAge = 30 * 24 * time.Hour

func checkBackups(backupDir string) Check {
	entries, err := filepath.Glob(filepath.Join(backupDir, "*.db"))
	if err != nil || len(entries) == 0 {
		return Check{
			Name:    "Backups",
			Status:  StatusWarning,
			Message: fmt.Sprintf("no backups found in %s", backupDir),
			Fix:     "run 'dentops backup'",
		}
	}

	var newest time.Time
	for _, entry := range entries {
		info, err := os.Stat(entry)
		if err != nil {
			continue
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}

	if time.Since(newest) > staleBackupAge {
		return Check{
			Name:    "Backups",
			Status:  StatusWarning,
			Message: fmt.Sprintf("newest backup is from %s", newest.Format("2006-01-02")),
			Fix:     "run 'dentops backup'",
		}
	}
	return Check{
		Name:    "Backups",
		Status:  StatusOK,
		Message: fmt.Sprintf("%d backups, newest %s", len(entries), newest.Format("2006-01-02")),
	}
}
