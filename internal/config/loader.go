package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load loads and merges configuration from global and project sources
func Load() (*Config, error) {
	cfg := DefaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, nil // Return defaults if no home dir
	}

	cwd, err := os.Getwd()
	if err != nil {
		return cfg, nil // Return defaults if no cwd
	}

	// Load global config first
	globalPath := filepath.Join(home, ".plantrack", "config.yaml")
	if err := loadFile(globalPath, cfg); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	// Load project config (overrides global)
	projectPath := filepath.Join(cwd, ".plantrack", "config.yaml")
	if err := loadFile(projectPath, cfg); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	// Environment variables override both files
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envKeys lists the config keys that may be overridden via
// PLANTRACK_* environment variables (dots become underscores, e.g.
// PLANTRACK_DATABASE_PATH, PLANTRACK_IMPORT_DEBOUNCE_MS).
var envKeys = []string{
	"database.path",
	"import.enabled",
	"import.dir",
	"import.debounce_ms",
	"dashboard.enabled",
	"dashboard.port",
	"log.file",
	"log.max_size_mb",
	"log.max_backups",
	"log.max_age_days",
}

func applyEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix("PLANTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return err
		}
	}
	return v.Unmarshal(cfg)
}

// LoadFile loads a single config file over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := loadFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(cfg)
}

// GlobalConfigPath returns the path to the global config file
func GlobalConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".plantrack", "config.yaml")
}
