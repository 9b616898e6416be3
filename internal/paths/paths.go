// Package paths resolves the dentops configuration directory and the
// clinic database location.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultConfigDirName is the CWD-relative configuration directory.
const DefaultConfigDirName = ".dentops"

// Environment variable names for overrides.
const (
	EnvConfigDir = "DENTOPS_CONFIG_DIR"
	EnvDatabase  = "DENTOPS_DATABASE"
)

// DefaultDatabasePath is where the clinic application keeps its SQLite file
// relative to the deployment root.
const DefaultDatabasePath = "data/clinic.db"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/dentops (fallback ~/.config/dentops)
// macOS:   ~/Library/Application Support/dentops
// Windows: %APPDATA%/dentops
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "dentops"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "dentops"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "dentops"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > DENTOPS_CONFIG_DIR env > $(CWD)/.dentops when it
// exists > DefaultConfigDir().
//
// The CWD-relative directory keeps per-deployment configuration next to the
// database it manages, which is how the tooling is normally run.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	if info, err := os.Stat(DefaultConfigDirName); err == nil && info.IsDir() {
		return filepath.Abs(DefaultConfigDirName)
	}
	return DefaultConfigDir()
}

// ResolveDatabase returns the clinic database path following the precedence
// chain: flag > config.yaml value > DENTOPS_DATABASE env > data/clinic.db.
func ResolveDatabase(flag, configValue string) string {
	if flag != "" {
		return flag
	}
	if configValue != "" {
		return configValue
	}
	if env := os.Getenv(EnvDatabase); env != "" {
		return env
	}
	return DefaultDatabasePath
}
