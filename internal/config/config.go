// Package config provides configuration management for the exporter daemon.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort          = 8561
	DefaultLogLevel      = "info"
	DefaultDataDir       = ".exporter"
	DefaultTemplate      = "{index} - {sequence}"
	DefaultMarkerPadS    = 5.0
	DefaultPruneDelay    = 2 * time.Second
	DefaultBridgeTimeout = 60 * time.Second

	// Environment variable names
	EnvPort         = "EXPORTER_PORT"
	EnvLogLevel     = "EXPORTER_LOG_LEVEL"
	EnvDataDir      = "EXPORTER_DATA_DIR"
	EnvLogDir       = "EXPORTER_RUN_LOG_DIR"
	EnvBridgeURL    = "EXPORTER_BRIDGE_URL"
	EnvTemplate     = "EXPORTER_FILENAME_TEMPLATE"
	EnvMarkerBefore = "EXPORTER_MARKER_BEFORE_S"
	EnvMarkerAfter  = "EXPORTER_MARKER_AFTER_S"
	EnvPruneDelay   = "EXPORTER_PRUNE_DELAY_S"

	// Database filename
	DBFilename = "exporter.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	RunLogDir() string
	BridgeURL() string
	BridgeTimeout() time.Duration
	FilenameTemplate() string
	MarkerBefore() time.Duration
	MarkerAfter() time.Duration
	PruneDelay() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port         int
	logLevel     string
	dataDir      string
	runLogDir    string
	bridgeURL    string
	template     string
	markerBefore time.Duration
	markerAfter  time.Duration
	pruneDelay   time.Duration
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:         DefaultPort,
		logLevel:     DefaultLogLevel,
		dataDir:      defaultDataDir(),
		template:     DefaultTemplate,
		markerBefore: secondsToDuration(DefaultMarkerPadS),
		markerAfter:  secondsToDuration(DefaultMarkerPadS),
		pruneDelay:   DefaultPruneDelay,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if ld := os.Getenv(EnvLogDir); ld != "" {
		cfg.runLogDir = ld
	}

	cfg.bridgeURL = os.Getenv(EnvBridgeURL)

	if t := os.Getenv(EnvTemplate); t != "" {
		cfg.template = t
	}

	if b := os.Getenv(EnvMarkerBefore); b != "" {
		secs, err := strconv.ParseFloat(b, 64)
		if err != nil || secs < 0 {
			return nil, fmt.Errorf("invalid %s: must be a non-negative number of seconds", EnvMarkerBefore)
		}
		cfg.markerBefore = secondsToDuration(secs)
	}

	if a := os.Getenv(EnvMarkerAfter); a != "" {
		secs, err := strconv.ParseFloat(a, 64)
		if err != nil || secs < 0 {
			return nil, fmt.Errorf("invalid %s: must be a non-negative number of seconds", EnvMarkerAfter)
		}
		cfg.markerAfter = secondsToDuration(secs)
	}

	if p := os.Getenv(EnvPruneDelay); p != "" {
		secs, err := strconv.ParseFloat(p, 64)
		if err != nil || secs < 0 {
			return nil, fmt.Errorf("invalid %s: must be a non-negative number of seconds", EnvPruneDelay)
		}
		cfg.pruneDelay = secondsToDuration(secs)
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// RunLogDir returns the directory run log files are written into.
func (c *EnvConfig) RunLogDir() string {
	if c.runLogDir != "" {
		return c.runLogDir
	}
	return filepath.Join(c.dataDir, "logs")
}

// BridgeURL returns the editor bridge base URL, empty if not configured.
func (c *EnvConfig) BridgeURL() string {
	return c.bridgeURL
}

func (c *EnvConfig) BridgeTimeout() time.Duration {
	return DefaultBridgeTimeout
}

// FilenameTemplate returns the filename template applied at enqueue time.
func (c *EnvConfig) FilenameTemplate() string {
	return c.template
}

func (c *EnvConfig) MarkerBefore() time.Duration {
	return c.markerBefore
}

func (c *EnvConfig) MarkerAfter() time.Duration {
	return c.markerAfter
}

// PruneDelay returns how long completed items stay visible after a run.
// Zero prunes them immediately.
func (c *EnvConfig) PruneDelay() time.Duration {
	return c.pruneDelay
}

func secondsToDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
