package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Version != "1" {
		t.Errorf("Expected version '1', got '%s'", cfg.Version)
	}
	if cfg.Database.Path == "" {
		t.Error("Expected a default database path")
	}
	if !cfg.Import.Enabled {
		t.Error("Expected import to be enabled by default")
	}
	if cfg.Import.DebounceMS != 100 {
		t.Errorf("Expected 100ms debounce, got %d", cfg.Import.DebounceMS)
	}
	if cfg.Dashboard.Enabled {
		t.Error("Expected dashboard disabled by default")
	}
	if cfg.Dashboard.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Dashboard.Port)
	}
	if cfg.Log.File != "" {
		t.Errorf("Expected stderr logging by default, got '%s'", cfg.Log.File)
	}
}

func TestWriteDefault(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Config file not created: %v", err)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, "config.yaml")
	content := `version: "1"
database:
  path: /tmp/custom.db
import:
  enabled: false
  debounce_ms: 250
dashboard:
  enabled: true
  port: 9000
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Database.Path != "/tmp/custom.db" {
		t.Errorf("Expected custom db path, got '%s'", cfg.Database.Path)
	}
	if cfg.Import.Enabled {
		t.Error("Expected import disabled")
	}
	if cfg.Import.DebounceMS != 250 {
		t.Errorf("Expected 250ms debounce, got %d", cfg.Import.DebounceMS)
	}
	if !cfg.Dashboard.Enabled || cfg.Dashboard.Port != 9000 {
		t.Errorf("Dashboard config not applied: %+v", cfg.Dashboard)
	}
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, "config.yaml")
	content := "dashboard:\n  port: 9100\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Dashboard.Port != 9100 {
		t.Errorf("Expected port 9100, got %d", cfg.Dashboard.Port)
	}
	if !cfg.Import.Enabled || cfg.Import.DebounceMS != 100 {
		t.Errorf("Defaults not preserved for absent keys: %+v", cfg.Import)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PLANTRACK_DATABASE_PATH", "/tmp/env.db")
	t.Setenv("PLANTRACK_DASHBOARD_PORT", "9200")
	t.Setenv("PLANTRACK_IMPORT_ENABLED", "false")

	cfg := DefaultConfig()
	if err := applyEnv(cfg); err != nil {
		t.Fatalf("applyEnv failed: %v", err)
	}

	if cfg.Database.Path != "/tmp/env.db" {
		t.Errorf("Expected env db path, got '%s'", cfg.Database.Path)
	}
	if cfg.Dashboard.Port != 9200 {
		t.Errorf("Expected port 9200, got %d", cfg.Dashboard.Port)
	}
	if cfg.Import.Enabled {
		t.Error("Expected import disabled via env")
	}
	if cfg.Import.DebounceMS != 100 {
		t.Errorf("Unset keys should keep defaults, got %d", cfg.Import.DebounceMS)
	}
}
