package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != DefaultLogLevel {
		t.Errorf("LogLevel() = %q, want %q", cfg.LogLevel(), DefaultLogLevel)
	}
	if cfg.FilenameTemplate() != DefaultTemplate {
		t.Errorf("FilenameTemplate() = %q, want %q", cfg.FilenameTemplate(), DefaultTemplate)
	}
	if cfg.MarkerBefore() != 5*time.Second || cfg.MarkerAfter() != 5*time.Second {
		t.Errorf("marker padding = %v/%v, want 5s/5s", cfg.MarkerBefore(), cfg.MarkerAfter())
	}
	if cfg.DBPath() != filepath.Join(cfg.DataDir(), DBFilename) {
		t.Errorf("DBPath() = %q, want it under DataDir()", cfg.DBPath())
	}
	if cfg.RunLogDir() != filepath.Join(cfg.DataDir(), "logs") {
		t.Errorf("RunLogDir() = %q, want logs under DataDir()", cfg.RunLogDir())
	}
	if cfg.PruneDelay() != DefaultPruneDelay {
		t.Errorf("PruneDelay() = %v, want %v", cfg.PruneDelay(), DefaultPruneDelay)
	}
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "9100")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvDataDir, "/custom/data")
	t.Setenv(EnvLogDir, "/custom/logs")
	t.Setenv(EnvBridgeURL, "http://127.0.0.1:3100")
	t.Setenv(EnvTemplate, "{clip}_{index}")
	t.Setenv(EnvMarkerBefore, "1.5")
	t.Setenv(EnvMarkerAfter, "0")
	t.Setenv(EnvPruneDelay, "0.5")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if cfg.Port() != 9100 {
		t.Errorf("Port() = %d, want 9100", cfg.Port())
	}
	if cfg.LogLevel() != "debug" {
		t.Errorf("LogLevel() = %q, want debug", cfg.LogLevel())
	}
	if cfg.DataDir() != "/custom/data" {
		t.Errorf("DataDir() = %q, want /custom/data", cfg.DataDir())
	}
	if cfg.RunLogDir() != "/custom/logs" {
		t.Errorf("RunLogDir() = %q, want /custom/logs", cfg.RunLogDir())
	}
	if cfg.BridgeURL() != "http://127.0.0.1:3100" {
		t.Errorf("BridgeURL() = %q", cfg.BridgeURL())
	}
	if cfg.FilenameTemplate() != "{clip}_{index}" {
		t.Errorf("FilenameTemplate() = %q", cfg.FilenameTemplate())
	}
	if cfg.MarkerBefore() != 1500*time.Millisecond {
		t.Errorf("MarkerBefore() = %v, want 1.5s", cfg.MarkerBefore())
	}
	if cfg.MarkerAfter() != 0 {
		t.Errorf("MarkerAfter() = %v, want 0", cfg.MarkerAfter())
	}
	if cfg.PruneDelay() != 500*time.Millisecond {
		t.Errorf("PruneDelay() = %v, want 0.5s", cfg.PruneDelay())
	}
}

func TestNew_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric port", EnvPort, "abc"},
		{"port out of range", EnvPort, "70000"},
		{"negative marker padding", EnvMarkerBefore, "-1"},
		{"non-numeric marker padding", EnvMarkerAfter, "soon"},
		{"negative prune delay", EnvPruneDelay, "-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := New(); err == nil {
				t.Fatalf("New() with %s=%q should fail", tt.key, tt.value)
			}
		})
	}
}
