package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "warn"}}
	ApplyDefaults(cfg)

	assert.Equal(t, "WARN", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
}

func TestApplyDefaults_Server(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultHost, cfg.Server.Host)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultBufferSize, cfg.Server.BufferSize)
	assert.Equal(t, DefaultWorkers, cfg.Server.Workers)
	assert.Zero(t, cfg.Server.QueueSize)
	assert.Zero(t, cfg.Server.RequestTimeout)
}

func TestApplyDefaults_Shutdown(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, "graceful", cfg.Shutdown.Mode)
	assert.Equal(t, 30*time.Second, cfg.Shutdown.Timeout)
}

func TestApplyDefaults_API(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	require.NotNil(t, cfg.API.Enabled)
	assert.True(t, cfg.API.IsEnabled())
	assert.Equal(t, "127.0.0.1:8090", cfg.API.Addr())
	assert.Equal(t, 10*time.Second, cfg.API.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.API.WriteTimeout)
	assert.Equal(t, 60*time.Second, cfg.API.IdleTimeout)
}

func TestApplyDefaults_JournalPath(t *testing.T) {
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)

	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.False(t, cfg.Quarantine.Journal.Enabled)
	assert.Equal(t, filepath.Join(state, "sigscan", "journal"), cfg.Quarantine.Journal.Path)
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	disabled := false
	cfg := &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      7001,
			Workers:   2,
			QueueSize: 9,
		},
		Quarantine: QuarantineConfig{Dir: "/var/quarantine"},
		Shutdown:   ShutdownConfig{Mode: "force", Timeout: time.Second},
	}
	cfg.API.Enabled = &disabled
	cfg.API.Port = 9999
	cfg.Telemetry.Profiling.ProfileTypes = []string{"goroutines"}

	ApplyDefaults(cfg)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Server.Workers)
	assert.Equal(t, 9, cfg.Server.QueueSize)
	assert.Equal(t, "/var/quarantine", cfg.Quarantine.Dir)
	assert.Equal(t, "force", cfg.Shutdown.Mode)
	assert.Equal(t, time.Second, cfg.Shutdown.Timeout)
	assert.False(t, cfg.API.IsEnabled())
	assert.Equal(t, 9999, cfg.API.Port)
	assert.Equal(t, []string{"goroutines"}, cfg.Telemetry.Profiling.ProfileTypes)
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	assert.NoError(t, Validate(GetDefaultConfig()))
}
