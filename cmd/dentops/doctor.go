// Doctor command: health checks over the database and its surroundings.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odontoware/dentops/internal/inspect"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check clinic database health",
	Long: `Doctor sanity-checks the configured database: file presence,
migration status, expected tables, orphaned rows, journal mode, free
pages, and backup freshness. Warnings are advisory; errors fail the
command.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	result, err := inspect.Doctor(cfg)
	if err != nil {
		return err
	}
	if flagJSON {
		if err := printJSON(result); err != nil {
			return err
		}
	} else {
		fmt.Printf("checking %s\n\n", result.Database)
		for _, check := range result.Checks {
			fmt.Printf("%s %-25s %s\n", statusMark(check.Status), check.Name, check.Message)
			if check.Fix != "" {
				fmt.Printf("  %-25s fix: %s\n", "", check.Fix)
			}
		}
	}

	if !result.OverallOK {
		return fmt.Errorf("doctor found problems")
	}
	return nil
}
