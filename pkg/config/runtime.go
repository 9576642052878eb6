package config

import (
	"github.com/marmos91/sigscan/internal/logger"
	"github.com/marmos91/sigscan/internal/telemetry"
	"github.com/marmos91/sigscan/pkg/client"
	"github.com/marmos91/sigscan/pkg/server"
)

// ServerContext builds the immutable server context. A zero queue size
// resolves to twice the worker count.
func (c *Config) ServerContext() server.Context {
	queue := c.Server.QueueSize
	if queue == 0 {
		queue = 2 * c.Server.Workers
	}

	return server.Context{
		Host:            c.Server.Host,
		Port:            c.Server.Port,
		BufferSize:      c.Server.BufferSize.Int(),
		QuarantineDir:   c.Quarantine.Dir,
		Workers:         c.Server.Workers,
		QueueSize:       queue,
		RequestTimeout:  c.Server.RequestTimeout,
		ShutdownMode:    server.ShutdownMode(c.Shutdown.Mode),
		ShutdownTimeout: c.Shutdown.Timeout,
	}
}

// ClientConfig returns the sigscanctl connection settings. The buffer size
// matches the server's so short-read framing lines up on both ends.
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		Host:       c.Server.Host,
		Port:       c.Server.Port,
		BufferSize: c.Server.BufferSize.Int(),
		Timeout:    c.Client.Timeout,
	}
}

// LoggerConfig returns the logger settings.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: c.Logging.Output,
	}
}

// TracingConfig returns the OpenTelemetry settings for the given version.
func (c *Config) TracingConfig(version string) telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.Enabled = c.Telemetry.Enabled
	tc.Endpoint = c.Telemetry.Endpoint
	tc.Insecure = c.Telemetry.Insecure
	tc.SampleRate = c.Telemetry.SampleRate
	if version != "" {
		tc.ServiceVersion = version
	}
	return tc
}

// ProfilingConfig returns the Pyroscope settings for the given version.
func (c *Config) ProfilingConfig(version string) telemetry.ProfilingConfig {
	pc := telemetry.DefaultProfilingConfig()
	pc.Enabled = c.Telemetry.Profiling.Enabled
	pc.Endpoint = c.Telemetry.Profiling.Endpoint
	pc.ProfileTypes = c.Telemetry.Profiling.ProfileTypes
	if version != "" {
		pc.ServiceVersion = version
	}
	return pc
}
