// Package inspect reads schema and health information out of the clinic
// database without modifying it.
package inspect

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrTableNotFound is returned when a table name is not in sqlite_master.
var ErrTableNotFound = errors.New("table not found")

// TableInfo summarizes one user table.
type TableInfo struct {
	Name    string `json:"name"`
	Rows    int64  `json:"rows"`
	Columns int    `json:"columns"`
}

// Tables lists user tables (sqlite internals excluded) with row and
// column counts, in sqlite_master order.
func Tables(db *sql.DB) ([]TableInfo, error) {
	rows, err := db.Query(
		`SELECT name FROM sqlite_master
         WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
         ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	infos := make([]TableInfo, 0, len(names))
	for _, name := range names {
		info := TableInfo{Name: name}

		// Table names can't be bound parameters; they come straight out
		// of sqlite_master above, not from user input.
		if err := db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %q`, name)).Scan(&info.Rows); err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}

		columns, err := Schema(db, name)
		if err != nil {
			return nil, err
		}
		info.Columns = len(columns)

		infos = append(infos, info)
	}
	return infos, nil
}

// ColumnInfo is one PRAGMA table_info row.
type ColumnInfo struct {
	CID        int    `json:"cid"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	Default    string `json:"default,omitempty"`
	PrimaryKey bool   `json:"primary_key"`
}

// Schema returns the column layout of a table. Unknown tables return
// ErrTableNotFound.
func Schema(db *sql.DB, table string) ([]ColumnInfo, error) {
	rows, err := db.Query(fmt.Sprintf(`PRAGMA table_info(%q)`, table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var (
			col     ColumnInfo
			notnull int
			pk      int
			dflt    sql.NullString
		)
		if err := rows.Scan(&col.CID, &col.Name, &col.Type, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info %s: %w", table, err)
		}
		col.NotNull = notnull != 0
		col.PrimaryKey = pk != 0
		col.Default = dflt.String
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// PRAGMA table_info returns zero rows for unknown tables rather
	// than an error.
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return columns, nil
}

// IntegrityReport holds the output of SQLite's self-check pragmas.
type IntegrityReport struct {
	IntegrityCheck   []string  `json:"integrity_check"`
	QuickCheck       []string  `json:"quick_check"`
	ForeignKeyIssues []FKIssue `json:"foreign_key_issues"`
	OK               bool      `json:"ok"`
}

// FKIssue is one PRAGMA foreign_key_check row.
type FKIssue struct {
	Table  string `json:"table"`
	RowID  int64  `json:"rowid"`
	Parent string `json:"parent"`
	FKID   int    `json:"fkid"`
}

// Integrity runs integrity_check, quick_check and foreign_key_check and
// collects everything they complain about.
func Integrity(db *sql.DB) (IntegrityReport, error) {
	report := IntegrityReport{}

	var err error
	report.IntegrityCheck, err = stringPragma(db, `PRAGMA integrity_check`)
	if err != nil {
		return report, err
	}
	report.QuickCheck, err = stringPragma(db, `PRAGMA quick_check`)
	if err != nil {
		return report, err
	}

	rows, err := db.Query(`PRAGMA foreign_key_check`)
	if err != nil {
		return report, fmt.Errorf("foreign_key_check: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var issue FKIssue
		var rowid sql.NullInt64
		if err := rows.Scan(&issue.Table, &rowid, &issue.Parent, &issue.FKID); err != nil {
			return report, fmt.Errorf("scan foreign_key_check: %w", err)
		}
		issue.RowID = rowid.Int64
		report.ForeignKeyIssues = append(report.ForeignKeyIssues, issue)
	}
	if err := rows.Err(); err != nil {
		return report, err
	}

	report.OK = len(report.ForeignKeyIssues) == 0 &&
		isAllOK(report.IntegrityCheck) && isAllOK(report.QuickCheck)
	return report, nil
}

func stringPragma(db *sql.DB, pragma string) ([]string, error) {
	rows, err := db.Query(pragma)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pragma, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("scan %s: %w", pragma, err)
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

func isAllOK(lines []string) bool {
	for _, line := range lines {
		if line != "ok" {
			return false
		}
	}
	return len(lines) > 0
}
