package migrate

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Migration is a one-off schema change. Run executes inside a transaction;
// returning an error rolls the whole migration back.
type Migration struct {
	Name        string
	Description string
	// BackupFirst copies the database file aside before the transaction
	// starts. Set on destructive migrations (table rebuilds).
	BackupFirst bool
	Run         func(tx *sql.Tx) error
}

// Standard errors.
var (
	ErrUnknownMigration = errors.New("unknown migration")
)

// Registry returns the migrations in the order they must apply.
func Registry() []Migration {
	return []Migration{
		{
			Name:        "2021_04_add_patient_phone2",
			Description: "add secondary phone column to patients",
			Run:         addPatientPhone2,
		},
		{
			Name:        "2021_06_create_treatments",
			Description: "create treatments table (CID-10 code per procedure)",
			Run:         createTreatments,
		},
		{
			Name:        "2021_09_add_appointment_status",
			Description: "replace appointments.done flag with a status column",
			Run:         addAppointmentStatus,
		},
		{
			Name:        "2022_01_rebuild_appointments",
			Description: "rebuild appointments with typed columns, drop legacy done flag",
			BackupFirst: true,
			Run:         rebuildAppointments,
		},
		{
			Name:        "2022_03_add_indexes",
			Description: "index patients.name, appointments.scheduled_at, treatments.cid10_code",
			Run:         addIndexes,
		},
		{
			Name:        "2022_05_dedupe_patient_cpf",
			Description: "remove duplicate patient CPF rows and enforce uniqueness",
			Run:         dedupePatientCPF,
		},
	}
}

// Find returns the registered migration with the given name.
func Find(name string) (Migration, error) {
	for _, m := range Registry() {
		if m.Name == name {
			return m, nil
		}
	}
	return Migration{}, fmt.Errorf("%w: %s", ErrUnknownMigration, name)
}

// Status describes one registry entry against a concrete database.
type Status struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	BackupFirst bool      `json:"backup_first"`
	Applied     bool      `json:"applied"`
	AppliedAt   time.Time `json:"applied_at,omitempty"`
}

// StatusAll reports every registered migration in registry order with its
// applied timestamp, if any.
func StatusAll(db *sql.DB) ([]Status, error) {
	applied, err := AppliedAt(db)
	if err != nil {
		return nil, err
	}

	statuses := make([]Status, 0, len(Registry()))
	for _, m := range Registry() {
		s := Status{Name: m.Name, Description: m.Description, BackupFirst: m.BackupFirst}
		if at, ok := applied[m.Name]; ok {
			s.Applied = true
			s.AppliedAt = at
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}

// Apply runs a single migration. Already-applied migrations are skipped and
// reported as applied=false in the return value. When the migration is
// flagged BackupFirst, the database file is copied into backupDir before the
// transaction begins; the copy's path is included in any failure so the
// operator can restore it if the rollback itself went wrong.
func Apply(db *sql.DB, m Migration, dbPath, backupDir string) (applied bool, err error) {
	already, err := IsApplied(db, m.Name)
	if err != nil {
		return false, err
	}
	if already {
		return false, nil
	}

	if err := ensureTrackerTable(db); err != nil {
		return false, err
	}

	var backupPath string
	if m.BackupFirst {
		backupPath, err = BackupFile(dbPath, backupDir)
		if err != nil {
			return false, fmt.Errorf("backup before %s: %w", m.Name, err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin %s: %w", m.Name, err)
	}

	if err := m.Run(tx); err != nil {
		rbErr := tx.Rollback()
		switch {
		case rbErr != nil && backupPath != "":
			// Rollback failed on top of the migration failure; fall back
			// to the file copy taken before the transaction.
			if restoreErr := RestoreFile(backupPath, dbPath); restoreErr != nil {
				return false, fmt.Errorf("%s failed (%v), rollback failed (%v), restore from %s failed: %w",
					m.Name, err, rbErr, backupPath, restoreErr)
			}
			return false, fmt.Errorf("%s failed, restored database from %s: %w", m.Name, backupPath, err)
		case rbErr != nil:
			return false, fmt.Errorf("%s failed, rollback also failed (%v): %w", m.Name, rbErr, err)
		case backupPath != "":
			return false, fmt.Errorf("%s rolled back (backup kept at %s): %w", m.Name, backupPath, err)
		default:
			return false, fmt.Errorf("%s rolled back: %w", m.Name, err)
		}
	}

	if err := markApplied(tx, m.Name); err != nil {
		tx.Rollback()
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit %s: %w", m.Name, err)
	}
	return true, nil
}

// ApplyByName applies the named migrations in registry order, regardless of
// the order given. It stops at the first failure and returns the names that
// actually ran.
func ApplyByName(db *sql.DB, names []string, dbPath, backupDir string) ([]string, error) {
	requested := make(map[string]bool, len(names))
	for _, name := range names {
		if _, err := Find(name); err != nil {
			return nil, err
		}
		requested[name] = true
	}

	var ran []string
	for _, m := range Registry() {
		if !requested[m.Name] {
			continue
		}
		applied, err := Apply(db, m, dbPath, backupDir)
		if err != nil {
			return ran, err
		}
		if applied {
			ran = append(ran, m.Name)
		}
	}
	return ran, nil
}

// ApplyAll applies every pending migration in registry order, stopping at
// the first failure.
func ApplyAll(db *sql.DB, dbPath, backupDir string) ([]string, error) {
	var ran []string
	for _, m := range Registry() {
		applied, err := Apply(db, m, dbPath, backupDir)
		if err != nil {
			return ran, err
		}
		if applied {
			ran = append(ran, m.Name)
		}
	}
	return ran, nil
}
