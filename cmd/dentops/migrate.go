// Migration commands: apply, list, status.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odontoware/dentops/internal/migrate"
)

var flagMigrateAll bool

var migrateCmd = &cobra.Command{
	Use:   "migrate [name...]",
	Short: "Apply one-off schema migrations",
	Long: `Migrate applies the named schema migrations, or every pending one
with --all. Applied migrations are recorded in schema_migrations and
skipped on re-runs. Destructive migrations copy the database file into
the backup directory before touching anything.

Example:
  dentops migrate --all
  dentops migrate 2021_04_add_patient_phone2`,
	RunE: runMigrate,
}

var migrateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrateList,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations for the database",
	Args:  cobra.NoArgs,
	RunE:  runMigrateStatus,
}

func init() {
	migrateCmd.Flags().BoolVar(&flagMigrateAll, "all", false, "apply every pending migration")
	migrateCmd.AddCommand(migrateListCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if !flagMigrateAll && len(args) == 0 {
		return fmt.Errorf("nothing to do: pass migration names or --all")
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	var ran []string
	if flagMigrateAll {
		ran, err = migrate.ApplyAll(db, cfg.Database, cfg.BackupDir)
	} else {
		ran, err = migrate.ApplyByName(db, args, cfg.Database, cfg.BackupDir)
	}
	for _, name := range ran {
		fmt.Printf("%s applied %s\n", okMark("✓"), name)
	}
	if err != nil {
		return err
	}
	if len(ran) == 0 {
		fmt.Println("nothing to apply")
	}
	return nil
}

func runMigrateList(cmd *cobra.Command, args []string) error {
	// List works without a database too; status columns appear when the
	// configured file opens.
	applied := map[string]bool{}
	if db, err := openDatabase(); err == nil {
		defer db.Close()
		statuses, err := migrate.StatusAll(db)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			applied[s.Name] = s.Applied
		}
	}

	registry := migrate.Registry()
	if flagJSON {
		type entry struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			BackupFirst bool   `json:"backup_first"`
			Applied     bool   `json:"applied"`
		}
		entries := make([]entry, 0, len(registry))
		for _, m := range registry {
			entries = append(entries, entry{m.Name, m.Description, m.BackupFirst, applied[m.Name]})
		}
		return printJSON(entries)
	}

	for _, m := range registry {
		marker := " "
		if m.BackupFirst {
			marker = "*"
		}
		state := warnMark("pending")
		if applied[m.Name] {
			state = okMark("applied")
		}
		fmt.Printf("%s %-35s %-7s  %s\n", marker, m.Name, state, m.Description)
	}
	fmt.Println("\n* takes a file backup before running")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	statuses, err := migrate.StatusAll(db)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(statuses)
	}

	pending := 0
	for _, s := range statuses {
		if s.Applied {
			fmt.Printf("%s %-35s applied %s\n", okMark("✓"), s.Name, s.AppliedAt.Format("2006-01-02 15:04"))
		} else {
			fmt.Printf("%s %-35s pending\n", warnMark("·"), s.Name)
			pending++
		}
	}
	if pending > 0 {
		fmt.Printf("\n%d pending; run 'dentops migrate --all'\n", pending)
	}
	return nil
}
