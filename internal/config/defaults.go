package config

import (
	"os"
	"path/filepath"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Database: DatabaseConfig{
			Path: filepath.Join(dataDir(), "plantrack.db"),
		},
		Import: ImportConfig{
			Enabled:    true,
			Dir:        filepath.Join(dataDir(), "tasks"),
			DebounceMS: 100,
		},
		Dashboard: DashboardConfig{
			Enabled: false,
			Port:    8080,
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 30,
		},
	}
}

// dataDir is where plantrack keeps its database and task files by default.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".plantrack"
	}
	return filepath.Join(home, ".plantrack")
}

// WriteDefault writes the default global configuration to a file
func WriteDefault(path string) error {
	content := `# Plantrack Configuration
version: "1"

# Durable collection store
database:
  path: ~/.plantrack/plantrack.db

# File import daemon
import:
  enabled: true
  dir: ~/.plantrack/tasks
  debounce_ms: 100

# WebSocket dashboard server
dashboard:
  enabled: false
  port: 8080

# Log output; stderr when file is empty
log:
  file: ""
  max_size_mb: 10
  max_backups: 3
  max_age_days: 30
`
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}
