package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/sigscan/internal/bytesize"
	"github.com/marmos91/sigscan/pkg/server"
)

// Default values shared by the server and the client.
const (
	DefaultHost       = "127.0.0.1"
	DefaultPort       = 6000
	DefaultBufferSize = 4 * bytesize.KiB
	DefaultWorkers    = 4
	DefaultQuarantine = "./quarantine"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values (0, "", false, nil) are replaced with defaults; explicit
// values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyServerDefaults(&cfg.Server)
	applyQuarantineDefaults(&cfg.Quarantine)
	applyShutdownDefaults(&cfg.Shutdown)
	cfg.API.ApplyDefaults()
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{"cpu", "alloc_space"}
	}
}

// applyServerDefaults sets listener and pool defaults. The queue size is
// left at zero; ServerContext resolves it against the worker count.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}
}

func applyQuarantineDefaults(cfg *QuarantineConfig) {
	if cfg.Dir == "" {
		cfg.Dir = DefaultQuarantine
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = filepath.Join(getStateDir(), "journal")
	}
}

func applyShutdownDefaults(cfg *ShutdownConfig) {
	if cfg.Mode == "" {
		cfg.Mode = string(server.ShutdownGraceful)
	}
	// Normalize mode for case-insensitive matching
	cfg.Mode = strings.ToLower(cfg.Mode)

	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
