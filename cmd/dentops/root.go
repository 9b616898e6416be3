// Root command for the dentops CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/odontoware/dentops/internal/paths"
	"github.com/odontoware/dentops/pkg/types"
)

// Version is stamped by the build; the default marks dev builds.
var Version = "0.4.0-dev"

// Global flag values.
var (
	flagConfigDir string
	flagDB        string
	flagJSON      bool
)

// cfg holds the configuration resolved by PersistentPreRunE; every
// subcommand reads from it.
var cfg types.Config

var rootCmd = &cobra.Command{
	Use:     "dentops",
	Short:   "Maintenance tooling for the clinic database and reference data",
	Version: Version,
	Long: `dentops is the maintenance toolbox for the clinic application:
one-off SQLite schema migrations, database inspection and health checks,
backups, development seeding, the CID-10 reference-data generator, and a
probe for the external CEP lookup service.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := paths.ResolveConfigDir(flagConfigDir)
		if err != nil {
			return err
		}

		v, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		cfg = types.Config{
			Database:     paths.ResolveDatabase(flagDB, v.GetString(cfgKeyDatabase)),
			BackupDir:    v.GetString(cfgKeyBackupDir),
			CID10XML:     v.GetString(cfgKeyCID10XML),
			CID10JSON:    v.GetString(cfgKeyCID10JSON),
			ProbeBaseURL: v.GetString(cfgKeyProbeBaseURL),
			AppBaseURL:   v.GetString(cfgKeyAppBaseURL),
		}
		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: $(CWD)/.dentops)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "clinic database file (default: data/clinic.db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(vacuumCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(cid10Cmd)
}
