package config

// Config represents the full plantrack configuration
type Config struct {
	Version string `yaml:"version" mapstructure:"version"`

	// Database configuration
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Import daemon configuration
	Import ImportConfig `yaml:"import" mapstructure:"import"`

	// Dashboard server configuration
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`

	// Log output configuration
	Log LogConfig `yaml:"log" mapstructure:"log"`
}

// DatabaseConfig configures the durable collection store
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ImportConfig configures the file import daemon
type ImportConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Dir is the directory of {id}.json task files watched by the daemon
	// and written by export.
	Dir string `yaml:"dir" mapstructure:"dir"`

	// DebounceMS batches rapid file changes, in milliseconds.
	DebounceMS int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// DashboardConfig configures the WebSocket dashboard server
type DashboardConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	Port    int  `yaml:"port" mapstructure:"port"`
}

// LogConfig configures log output. When File is empty, logs go to stderr.
type LogConfig struct {
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}
