package migrate

import (
	"database/sql"
	"fmt"
)

// baseSchema is the clinic schema as first deployed. Later shape changes
// live in the registry; seeding and tests start from here.
const baseSchema = `CREATE TABLE IF NOT EXISTS patients (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    cpf TEXT,
    phone TEXT,
    email TEXT,
    birth_date TEXT,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS dentists (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    cro TEXT,
    specialty TEXT
);

CREATE TABLE IF NOT EXISTS appointments (
    id TEXT PRIMARY KEY,
    patient_id TEXT NOT NULL,
    dentist_id TEXT NOT NULL,
    scheduled_at TEXT NOT NULL,
    done INTEGER NOT NULL DEFAULT 0,
    notes TEXT,
    FOREIGN KEY (patient_id) REFERENCES patients(id),
    FOREIGN KEY (dentist_id) REFERENCES dentists(id)
);`

// EnsureBaseSchema creates the baseline clinic tables when pointed at an
// empty database. Existing tables are left alone.
func EnsureBaseSchema(db *sql.DB) error {
	if _, err := db.Exec(baseSchema); err != nil {
		return fmt.Errorf("create base schema: %w", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

// tableColumns returns the column names of a table via PRAGMA table_info.
func tableColumns(q querier, table string) (map[string]bool, error) {
	rows, err := q.Query(fmt.Sprintf(`PRAGMA table_info(%q)`, table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var (
			cid, notnull, pk int
			name, ctype      string
			dflt             any
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info %s: %w", table, err)
		}
		columns[name] = true
	}
	return columns, rows.Err()
}

// addPatientPhone2 adds a secondary phone column. The front desk kept
// writing second numbers into the notes field before this existed.
func addPatientPhone2(tx *sql.Tx) error {
	columns, err := tableColumns(tx, "patients")
	if err != nil {
		return err
	}
	if columns["phone2"] {
		return nil
	}
	if _, err := tx.Exec(`ALTER TABLE patients ADD COLUMN phone2 TEXT`); err != nil {
		return fmt.Errorf("add patients.phone2: %w", err)
	}
	return nil
}

func createTreatments(tx *sql.Tx) error {
	const ddl = `CREATE TABLE IF NOT EXISTS treatments (
    id TEXT PRIMARY KEY,
    appointment_id TEXT NOT NULL,
    cid10_code TEXT,
    description TEXT NOT NULL,
    price REAL NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    FOREIGN KEY (appointment_id) REFERENCES appointments(id)
)`
	if _, err := tx.Exec(ddl); err != nil {
		return fmt.Errorf("create treatments: %w", err)
	}
	return nil
}

// addAppointmentStatus introduces the status column and backfills it from
// the legacy done flag. The flag itself goes away in the later rebuild.
func addAppointmentStatus(tx *sql.Tx) error {
	columns, err := tableColumns(tx, "appointments")
	if err != nil {
		return err
	}
	if columns["status"] {
		return nil
	}

	if _, err := tx.Exec(`ALTER TABLE appointments ADD COLUMN status TEXT NOT NULL DEFAULT 'scheduled'`); err != nil {
		return fmt.Errorf("add appointments.status: %w", err)
	}
	if columns["done"] {
		if _, err := tx.Exec(`UPDATE appointments SET status = 'done' WHERE done = 1`); err != nil {
			return fmt.Errorf("backfill appointments.status: %w", err)
		}
	}
	return nil
}

// rebuildAppointments recreates the appointments table with proper
// constraints and drops the legacy done flag. SQLite has no ALTER COLUMN,
// so this is the create-copy-drop-rename dance.
func rebuildAppointments(tx *sql.Tx) error {
	columns, err := tableColumns(tx, "appointments")
	if err != nil {
		return err
	}
	if !columns["done"] {
		// Already rebuilt.
		return nil
	}
	if !columns["status"] {
		return fmt.Errorf("rebuild appointments: status column missing, run 2021_09_add_appointment_status first")
	}

	statements := []string{
		`CREATE TABLE appointments_new (
    id TEXT PRIMARY KEY,
    patient_id TEXT NOT NULL,
    dentist_id TEXT NOT NULL,
    scheduled_at TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'scheduled'
        CHECK (status IN ('scheduled', 'confirmed', 'done', 'cancelled', 'no_show')),
    notes TEXT,
    FOREIGN KEY (patient_id) REFERENCES patients(id),
    FOREIGN KEY (dentist_id) REFERENCES dentists(id)
)`,
		`INSERT INTO appointments_new (id, patient_id, dentist_id, scheduled_at, status, notes)
    SELECT id, patient_id, dentist_id, scheduled_at, status, notes FROM appointments`,
		`DROP TABLE appointments`,
		`ALTER TABLE appointments_new RENAME TO appointments`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("rebuild appointments: %w", err)
		}
	}
	return nil
}

func addIndexes(tx *sql.Tx) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_patients_name ON patients(name)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_scheduled_at ON appointments(scheduled_at)`,
		`CREATE INDEX IF NOT EXISTS idx_treatments_cid10_code ON treatments(cid10_code)`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("add indexes: %w", err)
		}
	}
	return nil
}

// dedupePatientCPF deletes duplicate CPF rows keeping the earliest, then
// enforces uniqueness. Empty and NULL CPFs are out of scope for the index:
// walk-in patients are registered without one.
func dedupePatientCPF(tx *sql.Tx) error {
	const dedupe = `DELETE FROM patients
    WHERE cpf IS NOT NULL AND cpf != ''
      AND id NOT IN (
        SELECT MIN(id) FROM patients
        WHERE cpf IS NOT NULL AND cpf != ''
        GROUP BY cpf
      )`
	if _, err := tx.Exec(dedupe); err != nil {
		return fmt.Errorf("dedupe patients.cpf: %w", err)
	}

	const index = `CREATE UNIQUE INDEX IF NOT EXISTS idx_patients_cpf
    ON patients(cpf) WHERE cpf IS NOT NULL AND cpf != ''`
	if _, err := tx.Exec(index); err != nil {
		return fmt.Errorf("unique index on patients.cpf: %w", err)
	}
	return nil
}
