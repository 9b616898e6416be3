// Backup and vacuum commands.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odontoware/dentops/internal/migrate"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy the database file into the backup directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := migrate.BackupFile(cfg.Database, cfg.BackupDir)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(map[string]string{"backup": path})
		}
		fmt.Printf("%s backup written to %s\n", okMark("✓"), path)
		return nil
	},
}

var vacuumCmd = &cobra.Command{
	Use:   "vacuum",
	Short: "VACUUM the database and report reclaimed space",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := migrate.Vacuum(db)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(stats)
		}

		fmt.Printf("journal mode:    %s\n", stats.JournalMode)
		fmt.Printf("pages before:    %d (%d free)\n", stats.PagesBefore, stats.FreeBefore)
		fmt.Printf("pages after:     %d (%d free)\n", stats.PagesAfter, stats.FreeAfter)
		fmt.Printf("bytes reclaimed: %d\n", stats.BytesReclaimed)
		return nil
	},
}
