// Seed command: fake clinic data for development databases.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/odontoware/dentops/internal/seed"
)

var (
	flagSeedPatients int
	flagSeedRand     int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill a development database with fake clinic data",
	Long: `Seed creates the database file if missing, applies every
migration, and inserts fake patients, the development dentist roster,
appointments over the last 90 days, and treatments with real CID-10
codes. Never point this at a production file.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&flagSeedPatients, "patients", seed.DefaultPatients, "number of patients to create")
	seedCmd.Flags().Int64Var(&flagSeedRand, "rand-seed", 0, "random seed for reproducible data (0 = clock)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	// Unlike every other subcommand, seed may create the file.
	if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}
	db, err := sql.Open("sqlite", cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	summary, err := seed.Run(db, cfg.Database, cfg.BackupDir, seed.Options{
		Patients: flagSeedPatients,
		RandSeed: flagSeedRand,
	})
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(summary)
	}

	fmt.Printf("%s seeded %s\n", okMark("✓"), cfg.Database)
	fmt.Printf("  patients:     %d\n", summary.Patients)
	fmt.Printf("  dentists:     %d\n", summary.Dentists)
	fmt.Printf("  appointments: %d\n", summary.Appointments)
	fmt.Printf("  treatments:   %d\n", summary.Treatments)
	return nil
}
