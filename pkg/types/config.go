// Package types defines the shared configuration struct and standard
// errors for the dentops maintenance tooling.
package types

import "errors"

// Config holds the resolved settings every dentops subcommand works from.
// Relative paths resolve against the working directory, matching the
// layout the clinic application itself uses.
type Config struct {
	// Database is the path to the clinic SQLite file.
	Database string `json:"database" yaml:"database"`

	// BackupDir receives timestamped copies made by `dentops backup`
	// and by destructive migrations.
	BackupDir string `json:"backup_dir" yaml:"backup_dir"`

	// CID10XML is the DATASUS CID-10 XML the generator reads.
	CID10XML string `json:"cid10_xml" yaml:"cid10_xml"`

	// CID10JSON is the static JSON artifact the search helper reads.
	CID10JSON string `json:"cid10_json" yaml:"cid10_json"`

	// ProbeBaseURL is the base URL of the external CEP lookup service.
	ProbeBaseURL string `json:"probe_base_url" yaml:"probe_base_url"`

	// AppBaseURL is the base URL of the running clinic application,
	// used by the smoke tests.
	AppBaseURL string `json:"app_base_url" yaml:"app_base_url"`
}

// Config validation errors.
var (
	ErrDatabaseEmpty  = errors.New("database path must not be empty")
	ErrBackupDirEmpty = errors.New("backup directory must not be empty")
)

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Database == "" {
		return ErrDatabaseEmpty
	}
	if c.BackupDir == "" {
		return ErrBackupDirEmpty
	}
	return nil
}
