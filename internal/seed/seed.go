// Package seed fills a development database with plausible clinic data
// so the application and the maintenance tooling have something to chew on.
package seed

import (
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/odontoware/dentops/internal/migrate"
)

// Options controls the volume and determinism of the generated data.
type Options struct {
	Patients int
	// RandSeed makes runs reproducible; 0 seeds from the clock.
	RandSeed int64
}

// DefaultPatients is the number of patients seeded when none is given.
const DefaultPatients = 50

// Summary reports what was inserted.
type Summary struct {
	Patients     int `json:"patients"`
	Dentists     int `json:"dentists"`
	Appointments int `json:"appointments"`
	Treatments   int `json:"treatments"`
}

// dentists is the fixed development roster.
var dentists = []struct {
	name      string
	cro       string
	specialty string
}{
	{"Dra. Helena Martins", "SP-48213", "ortodontia"},
	{"Dr. Rafael Souza", "SP-51907", "endodontia"},
	{"Dra. Camila Ferreira", "PR-23341", "clínica geral"},
}

// dentalCodes are CID-10 codes from the oral-cavity chapter, the ones the
// application actually records on treatments.
var dentalCodes = []string{
	"K02.0", "K02.1", "K02.9", "K04.0", "K04.5",
	"K05.0", "K05.1", "K07.3", "K08.1", "K12.0",
}

var treatmentNames = []string{
	"restauração", "extração", "canal", "limpeza",
	"aplicação de flúor", "manutenção de aparelho",
}

// appointmentStatuses weights recent history toward completed visits.
var appointmentStatuses = []string{"done", "done", "done", "scheduled", "cancelled", "no_show"}

// Run creates the base schema if needed, applies all migrations, and
// inserts the fake roster. It refuses nothing: seeding an already-seeded
// database just adds more rows, which is what development wants.
func Run(db *sql.DB, dbPath, backupDir string, opts Options) (Summary, error) {
	var summary Summary

	if opts.Patients <= 0 {
		opts.Patients = DefaultPatients
	}
	// An explicit seed makes everything reproducible, row IDs included,
	// so the IDs come from the same seeded source instead of uuid v7.
	var idRng *rand.Rand
	if opts.RandSeed != 0 {
		idRng = rand.New(rand.NewSource(opts.RandSeed))
	} else {
		opts.RandSeed = time.Now().UnixNano()
	}
	faker := gofakeit.New(opts.RandSeed)

	if err := migrate.EnsureBaseSchema(db); err != nil {
		return summary, err
	}
	if _, err := migrate.ApplyAll(db, dbPath, backupDir); err != nil {
		return summary, fmt.Errorf("migrate before seeding: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return summary, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	dentistIDs := make([]string, 0, len(dentists))
	for _, d := range dentists {
		id := newID(idRng)
		if _, err := tx.Exec(
			`INSERT INTO dentists (id, name, cro, specialty) VALUES (?, ?, ?, ?)`,
			id, d.name, d.cro, d.specialty,
		); err != nil {
			return summary, fmt.Errorf("insert dentist: %w", err)
		}
		dentistIDs = append(dentistIDs, id)
		summary.Dentists++
	}

	now := time.Now()
	for i := 0; i < opts.Patients; i++ {
		patientID := newID(idRng)
		birth := faker.DateRange(now.AddDate(-80, 0, 0), now.AddDate(-5, 0, 0))
		if _, err := tx.Exec(
			`INSERT INTO patients (id, name, cpf, phone, phone2, email, birth_date, created_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			patientID,
			faker.Name(),
			faker.DigitN(11),
			faker.Phone(),
			nullablePhone(faker),
			faker.Email(),
			birth.Format("2006-01-02"),
			now.UTC().Format(time.RFC3339),
		); err != nil {
			return summary, fmt.Errorf("insert patient: %w", err)
		}
		summary.Patients++

		// One to three appointments over the last 90 days.
		for j := 0; j < faker.Number(1, 3); j++ {
			appointmentID := newID(idRng)
			scheduled := faker.DateRange(now.AddDate(0, 0, -90), now.AddDate(0, 0, 14))
			status := appointmentStatuses[faker.Number(0, len(appointmentStatuses)-1)]
			if scheduled.After(now) {
				status = "scheduled"
			}
			if _, err := tx.Exec(
				`INSERT INTO appointments (id, patient_id, dentist_id, scheduled_at, status)
                 VALUES (?, ?, ?, ?, ?)`,
				appointmentID,
				patientID,
				dentistIDs[faker.Number(0, len(dentistIDs)-1)],
				scheduled.Format("2006-01-02T15:04:05"),
				status,
			); err != nil {
				return summary, fmt.Errorf("insert appointment: %w", err)
			}
			summary.Appointments++

			if status != "done" {
				continue
			}
			if _, err := tx.Exec(
				`INSERT INTO treatments (id, appointment_id, cid10_code, description, price, created_at)
                 VALUES (?, ?, ?, ?, ?, ?)`,
				newID(idRng),
				appointmentID,
				dentalCodes[faker.Number(0, len(dentalCodes)-1)],
				treatmentNames[faker.Number(0, len(treatmentNames)-1)],
				faker.Price(80, 1200),
				scheduled.Format(time.RFC3339),
			); err != nil {
				return summary, fmt.Errorf("insert treatment: %w", err)
			}
			summary.Treatments++
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("commit seed: %w", err)
	}
	return summary, nil
}

// newID generates a UUID v7 so seeded rows sort by insertion time like
// the application's own. With a seeded source it generates a v4 from that
// source instead, trading time-ordering for reproducibility.
func newID(rng *rand.Rand) string {
	if rng != nil {
		if id, err := uuid.NewRandomFromReader(rng); err == nil {
			return id.String()
		}
	}
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// nullablePhone returns a second phone for roughly a third of patients.
func nullablePhone(faker *gofakeit.Faker) any {
	if faker.Number(0, 2) == 0 {
		return faker.Phone()
	}
	return nil
}
