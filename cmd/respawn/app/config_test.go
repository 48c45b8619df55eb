package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/respawnmetrics/respawn/pkg/constants"
	"github.com/respawnmetrics/respawn/pkg/errors"
)

// TestLoadConfig verifies defaults.
func TestLoadConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.InputDir != constants.DefaultInputDir {
		t.Errorf("InputDir = %s, want %s", config.InputDir, constants.DefaultInputDir)
	}
	if config.OutputDir != constants.DefaultOutputDir {
		t.Errorf("OutputDir = %s, want %s", config.OutputDir, constants.DefaultOutputDir)
	}
	if config.Concurrency != constants.MaxConcurrentLoads {
		t.Errorf("Concurrency = %d, want %d", config.Concurrency, constants.MaxConcurrentLoads)
	}
	if config.LoadTimeout != constants.LoadTimeout {
		t.Errorf("LoadTimeout = %s, want %s", config.LoadTimeout, constants.LoadTimeout)
	}
	if config.LogFormat == "" {
		t.Error("LogFormat not set to default")
	}
}

// TestConfig_EnvironmentVariables verifies prefixed environment variables.
func TestConfig_EnvironmentVariables(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RESPAWN_INPUT_DIR", "/data/cleaned")
	t.Setenv("RESPAWN_CLEAN", "true")
	t.Setenv("RESPAWN_CONCURRENCY", "2")
	t.Setenv("RESPAWN_LOAD_TIMEOUT", "30s")
	t.Setenv("RESPAWN_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.InputDir != "/data/cleaned" {
		t.Errorf("InputDir = %s, want /data/cleaned", config.InputDir)
	}
	if !config.Clean {
		t.Error("RESPAWN_CLEAN not loaded")
	}
	if config.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2", config.Concurrency)
	}
	if config.LoadTimeout != 30*time.Second {
		t.Errorf("LoadTimeout = %s, want 30s", config.LoadTimeout)
	}
	if config.Format != "json" {
		t.Errorf("Format = %s, want json", config.Format)
	}
	if config.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", config.LogLevel)
	}
}

// TestConfig_File verifies an explicit config file.
func TestConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "respawn.yaml")
	content := "output_dir: /data/merged\nsqlite_path: metrics.db\nconcurrency: 3\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.OutputDir != "/data/merged" {
		t.Errorf("OutputDir = %s, want /data/merged", config.OutputDir)
	}
	if config.SQLitePath != "metrics.db" {
		t.Errorf("SQLitePath = %s, want metrics.db", config.SQLitePath)
	}
	if config.Concurrency != 3 {
		t.Errorf("Concurrency = %d, want 3", config.Concurrency)
	}
	if config.ConfigFile != path {
		t.Errorf("ConfigFile = %s, want %s", config.ConfigFile, path)
	}
	if config.InputDir != constants.DefaultInputDir {
		t.Errorf("InputDir = %s, want default", config.InputDir)
	}
}

// TestConfig_Invalid verifies rejected values.
func TestConfig_Invalid(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}

	t.Setenv("HOME", t.TempDir())
	t.Setenv("RESPAWN_CONCURRENCY", "0")
	_, err := LoadConfig("")
	var configErr *errors.ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("LoadConfig() error = %v, want ConfigError", err)
	}
	if configErr.Component != "concurrency" {
		t.Errorf("Component = %s, want concurrency", configErr.Component)
	}
}

// TestConfig_UpdateFromFlags verifies flags override loaded values.
func TestConfig_UpdateFromFlags(t *testing.T) {
	config := &Config{Format: "yaml", LogLevel: "warn"}

	config.UpdateFromFlags(true, false, true, "", "")
	if !config.Verbose || !config.NoColor {
		t.Error("boolean flags not applied")
	}
	if config.Format != "yaml" || config.LogLevel != "warn" {
		t.Error("empty flags should keep loaded values")
	}

	config.UpdateFromFlags(false, false, false, "json", "error")
	if config.Format != "json" || config.LogLevel != "error" {
		t.Errorf("Format = %s, LogLevel = %s", config.Format, config.LogLevel)
	}
}
