// Shared helpers for dentops subcommands.
package main

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"

	"github.com/odontoware/dentops/internal/inspect"
	"github.com/odontoware/dentops/internal/migrate"
)

// openDatabase opens the configured database; the caller must Close it.
func openDatabase() (*sql.DB, error) {
	db, err := migrate.OpenExisting(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// printJSON writes any value as indented JSON to stdout.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// Status markers shared by doctor and inspect output.
var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	warnMark = color.New(color.FgYellow).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
)

// statusMark renders a doctor status with its color.
func statusMark(status string) string {
	switch status {
	case inspect.StatusOK:
		return okMark("✓")
	case inspect.StatusWarning:
		return warnMark("!")
	default:
		return failMark("✗")
	}
}
