// Inspection commands: tables, schema, integrity.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odontoware/dentops/internal/inspect"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Read-only views of the clinic database",
}

var inspectTablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List tables with row and column counts",
	Args:  cobra.NoArgs,
	RunE:  runInspectTables,
}

var inspectSchemaCmd = &cobra.Command{
	Use:   "schema <table>",
	Short: "Show the column layout of a table",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspectSchema,
}

var inspectIntegrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Run SQLite's integrity and foreign-key checks",
	Args:  cobra.NoArgs,
	RunE:  runInspectIntegrity,
}

func init() {
	inspectCmd.AddCommand(inspectTablesCmd)
	inspectCmd.AddCommand(inspectSchemaCmd)
	inspectCmd.AddCommand(inspectIntegrityCmd)
}

func runInspectTables(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	infos, err := inspect.Tables(db)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(infos)
	}

	fmt.Printf("%-25s %10s %8s\n", "TABLE", "ROWS", "COLUMNS")
	for _, info := range infos {
		fmt.Printf("%-25s %10d %8d\n", info.Name, info.Rows, info.Columns)
	}
	return nil
}

func runInspectSchema(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	columns, err := inspect.Schema(db, args[0])
	if err != nil {
		if errors.Is(err, inspect.ErrTableNotFound) {
			return fmt.Errorf("table %q not found; 'dentops inspect tables' lists what exists", args[0])
		}
		return err
	}
	if flagJSON {
		return printJSON(columns)
	}

	fmt.Printf("%-3s %-20s %-10s %-8s %-8s %s\n", "CID", "NAME", "TYPE", "NOTNULL", "PK", "DEFAULT")
	for _, col := range columns {
		fmt.Printf("%-3d %-20s %-10s %-8v %-8v %s\n",
			col.CID, col.Name, col.Type, col.NotNull, col.PrimaryKey, col.Default)
	}
	return nil
}

func runInspectIntegrity(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := inspect.Integrity(db)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(report)
	}

	for _, line := range report.IntegrityCheck {
		fmt.Printf("integrity_check: %s\n", line)
	}
	for _, line := range report.QuickCheck {
		fmt.Printf("quick_check:     %s\n", line)
	}
	for _, issue := range report.ForeignKeyIssues {
		fmt.Printf("%s foreign key: %s rowid=%d references missing %s\n",
			failMark("✗"), issue.Table, issue.RowID, issue.Parent)
	}

	if !report.OK {
		return fmt.Errorf("integrity problems found")
	}
	fmt.Printf("%s database is consistent\n", okMark("✓"))
	return nil
}
