package seed

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/odontoware/dentops/internal/migrate"
)

func newEmptyDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "clinic.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, dbPath
}

func TestRunSeedsEmptyDatabase(t *testing.T) {
	db, dbPath := newEmptyDB(t)

	summary, err := Run(db, dbPath, t.TempDir(), Options{Patients: 20, RandSeed: 42})
	require.NoError(t, err)

	assert.Equal(t, 20, summary.Patients)
	assert.Equal(t, len(dentists), summary.Dentists)
	assert.GreaterOrEqual(t, summary.Appointments, summary.Patients, "1-3 appointments per patient")
	assert.LessOrEqual(t, summary.Appointments, summary.Patients*3)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM patients`).Scan(&count))
	assert.Equal(t, 20, count)

	// Migrations ran first, so the post-rebuild shape is in place.
	var status string
	err = db.QueryRow(`SELECT status FROM appointments LIMIT 1`).Scan(&status)
	require.NoError(t, err)
	assert.Contains(t, []string{"scheduled", "confirmed", "done", "cancelled", "no_show"}, status)

	statuses, err := migrate.StatusAll(db)
	require.NoError(t, err)
	for _, s := range statuses {
		assert.True(t, s.Applied, "%s must be applied before seeding", s.Name)
	}
}

func TestRunTreatmentsOnlyForDoneAppointments(t *testing.T) {
	db, dbPath := newEmptyDB(t)

	summary, err := Run(db, dbPath, t.TempDir(), Options{Patients: 30, RandSeed: 7})
	require.NoError(t, err)

	var done int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM appointments WHERE status = 'done'`).Scan(&done))
	assert.Equal(t, done, summary.Treatments, "exactly one treatment per completed appointment")

	var badCodes int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM treatments WHERE cid10_code NOT LIKE 'K%'`).Scan(&badCodes))
	assert.Zero(t, badCodes, "seeded treatments use oral-cavity CID-10 codes")
}

func TestRunDeterministicWithSeed(t *testing.T) {
	dbA, pathA := newEmptyDB(t)
	dbB, pathB := newEmptyDB(t)

	sumA, err := Run(dbA, pathA, t.TempDir(), Options{Patients: 10, RandSeed: 99})
	require.NoError(t, err)
	sumB, err := Run(dbB, pathB, t.TempDir(), Options{Patients: 10, RandSeed: 99})
	require.NoError(t, err)

	assert.Equal(t, sumA, sumB)

	var idA, nameA, idB, nameB string
	require.NoError(t, dbA.QueryRow(`SELECT id, name FROM patients ORDER BY id LIMIT 1`).Scan(&idA, &nameA))
	require.NoError(t, dbB.QueryRow(`SELECT id, name FROM patients ORDER BY id LIMIT 1`).Scan(&idB, &nameB))
	assert.Equal(t, nameA, nameB, "same seed, same roster")
	assert.Equal(t, idA, idB, "row IDs come from the seeded source too")
}

func TestRunDefaultsPatientCount(t *testing.T) {
	db, dbPath := newEmptyDB(t)

	summary, err := Run(db, dbPath, t.TempDir(), Options{RandSeed: 1})
	require.NoError(t, err)
	assert.Equal(t, DefaultPatients, summary.Patients)
}
