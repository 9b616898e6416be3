package migrate

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDB creates a fresh database file with the baseline schema.
func newTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "clinic.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, EnsureBaseSchema(db))
	return db, dbPath
}

func columnSet(t *testing.T, db *sql.DB, table string) map[string]bool {
	t.Helper()
	columns, err := tableColumns(db, table)
	require.NoError(t, err)
	return columns
}

func TestApplyAll(t *testing.T) {
	db, dbPath := newTestDB(t)
	backupDir := filepath.Join(filepath.Dir(dbPath), "backups")

	ran, err := ApplyAll(db, dbPath, backupDir)
	require.NoError(t, err)
	assert.Len(t, ran, len(Registry()), "every registered migration should run once")

	// Resulting shape.
	patients := columnSet(t, db, "patients")
	assert.True(t, patients["phone2"], "patients.phone2 added")

	appointments := columnSet(t, db, "appointments")
	assert.True(t, appointments["status"], "appointments.status present")
	assert.False(t, appointments["done"], "legacy done flag dropped by rebuild")

	treatments := columnSet(t, db, "treatments")
	assert.True(t, treatments["cid10_code"], "treatments table created")

	// Second run is a no-op.
	ran, err = ApplyAll(db, dbPath, backupDir)
	require.NoError(t, err)
	assert.Empty(t, ran, "re-applying must be idempotent")
}

func TestApplyRecordsTracker(t *testing.T) {
	db, dbPath := newTestDB(t)
	backupDir := filepath.Join(filepath.Dir(dbPath), "backups")

	m, err := Find("2021_04_add_patient_phone2")
	require.NoError(t, err)

	applied, err := Apply(db, m, dbPath, backupDir)
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := IsApplied(db, m.Name)
	require.NoError(t, err)
	assert.True(t, got)

	// Skipped on the second attempt.
	applied, err = Apply(db, m, dbPath, backupDir)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestApplyByName(t *testing.T) {
	t.Run("unknown name is rejected before anything runs", func(t *testing.T) {
		db, dbPath := newTestDB(t)

		_, err := ApplyByName(db, []string{"2024_99_nope"}, dbPath, t.TempDir())
		require.ErrorIs(t, err, ErrUnknownMigration)

		statuses, err := StatusAll(db)
		require.NoError(t, err)
		for _, s := range statuses {
			assert.False(t, s.Applied, "%s must not have run", s.Name)
		}
	})

	t.Run("runs in registry order regardless of argument order", func(t *testing.T) {
		db, dbPath := newTestDB(t)

		ran, err := ApplyByName(db, []string{
			"2021_06_create_treatments",
			"2021_04_add_patient_phone2",
		}, dbPath, t.TempDir())
		require.NoError(t, err)
		require.Equal(t, []string{
			"2021_04_add_patient_phone2",
			"2021_06_create_treatments",
		}, ran)
	})
}

func TestRebuildRequiresStatusColumn(t *testing.T) {
	db, dbPath := newTestDB(t)
	backupDir := t.TempDir()

	m, err := Find("2022_01_rebuild_appointments")
	require.NoError(t, err)

	// Status migration has not run; rebuild must refuse and roll back.
	_, err = Apply(db, m, dbPath, backupDir)
	require.Error(t, err)

	got, err := IsApplied(db, m.Name)
	require.NoError(t, err)
	assert.False(t, got, "failed migration must not be recorded")

	// The legacy column survives the rollback.
	appointments := columnSet(t, db, "appointments")
	assert.True(t, appointments["done"])

	// The pre-transaction backup copy was still taken.
	entries, err := filepath.Glob(filepath.Join(backupDir, "clinic-*.db"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries, "destructive migration takes a file backup first")
}

func TestRebuildPreservesRows(t *testing.T) {
	db, dbPath := newTestDB(t)
	backupDir := t.TempDir()

	_, err := db.Exec(`INSERT INTO patients (id, name, created_at) VALUES ('p1', 'Ana', '2021-01-01')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO dentists (id, name) VALUES ('d1', 'Dr. Souza')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO appointments (id, patient_id, dentist_id, scheduled_at, done)
        VALUES ('a1', 'p1', 'd1', '2021-08-10T14:00:00', 1)`)
	require.NoError(t, err)

	_, err = ApplyAll(db, dbPath, backupDir)
	require.NoError(t, err)

	var status string
	err = db.QueryRow(`SELECT status FROM appointments WHERE id = 'a1'`).Scan(&status)
	require.NoError(t, err)
	assert.Equal(t, "done", status, "done flag backfilled into status before rebuild")
}

func TestDedupePatientCPF(t *testing.T) {
	db, dbPath := newTestDB(t)

	inserts := []struct{ id, cpf string }{
		{"p1", "52998224725"},
		{"p2", "52998224725"}, // duplicate, must go
		{"p3", ""},            // empty CPFs are left alone
		{"p4", ""},
	}
	for _, row := range inserts {
		_, err := db.Exec(`INSERT INTO patients (id, name, cpf, created_at) VALUES (?, 'x', ?, '2021-01-01')`,
			row.id, row.cpf)
		require.NoError(t, err)
	}

	_, err := ApplyAll(db, dbPath, t.TempDir())
	require.NoError(t, err)

	var total int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM patients`).Scan(&total))
	assert.Equal(t, 3, total, "one duplicate removed, empty CPFs kept")

	// Uniqueness is enforced from now on.
	_, err = db.Exec(`INSERT INTO patients (id, name, cpf, created_at) VALUES ('p5', 'y', '52998224725', '2022-06-01')`)
	assert.Error(t, err)
}

func TestStatusReadsAreReadOnly(t *testing.T) {
	db, _ := newTestDB(t)

	statuses, err := StatusAll(db)
	require.NoError(t, err)
	require.Len(t, statuses, len(Registry()))

	applied, err := IsApplied(db, "2021_04_add_patient_phone2")
	require.NoError(t, err)
	assert.False(t, applied)

	// Reporting on a never-migrated database must not create the tracker.
	exists, err := TrackerExists(db)
	require.NoError(t, err)
	assert.False(t, exists, "status reads must not create schema_migrations")
}

func TestApplyReportsFailedRollback(t *testing.T) {
	db, dbPath := newTestDB(t)

	// Committing inside Run leaves nothing for Apply to roll back, so the
	// rollback fails with ErrTxDone and must surface in the error.
	m := Migration{
		Name: "broken_commit",
		Run: func(tx *sql.Tx) error {
			require.NoError(t, tx.Commit())
			return assert.AnError
		},
	}

	_, err := Apply(db, m, dbPath, t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "rollback also failed")
}

func TestStatusAll(t *testing.T) {
	db, dbPath := newTestDB(t)

	statuses, err := StatusAll(db)
	require.NoError(t, err)
	require.Len(t, statuses, len(Registry()))
	for _, s := range statuses {
		assert.False(t, s.Applied)
	}
	assert.True(t, statuses[3].BackupFirst, "rebuild migration is flagged for listings")

	_, err = ApplyByName(db, []string{"2021_04_add_patient_phone2"}, dbPath, t.TempDir())
	require.NoError(t, err)

	statuses, err = StatusAll(db)
	require.NoError(t, err)
	assert.True(t, statuses[0].Applied)
	assert.False(t, statuses[0].AppliedAt.IsZero())
	assert.False(t, statuses[1].Applied)
}
