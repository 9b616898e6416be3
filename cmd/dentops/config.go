// Config loading for the dentops CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyDatabase     = "database"
	cfgKeyBackupDir    = "backup_dir"
	cfgKeyCID10XML     = "cid10.xml"
	cfgKeyCID10JSON    = "cid10.json"
	cfgKeyProbeBaseURL = "probe.base_url"
	cfgKeyAppBaseURL   = "app.base_url"
)

// Defaults match the clinic application's deployment layout.
const (
	defaultBackupDir    = "data/backups"
	defaultCID10XML     = "data/cid10.xml"
	defaultCID10JSON    = "app/static/cid10.json"
	defaultProbeBaseURL = "https://viacep.com.br"
	defaultAppBaseURL   = "http://localhost:5000"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# dentops configuration

# Clinic SQLite database (overridable with --db)
# database: data/clinic.db

# Where backups and pre-migration copies go
backup_dir: data/backups

cid10:
  xml: data/cid10.xml
  json: app/static/cid10.json

probe:
  base_url: https://viacep.com.br

app:
  base_url: http://localhost:5000
`

// loadConfig reads config.yaml from the resolved config directory using
// Viper, creating the directory and a default file on first run. A missing
// config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackupDir, defaultBackupDir)
	v.SetDefault(cfgKeyCID10XML, defaultCID10XML)
	v.SetDefault(cfgKeyCID10JSON, defaultCID10JSON)
	v.SetDefault(cfgKeyProbeBaseURL, defaultProbeBaseURL)
	v.SetDefault(cfgKeyAppBaseURL, defaultAppBaseURL)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates a default config.yaml if missing.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
