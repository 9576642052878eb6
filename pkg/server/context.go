package server

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// ShutdownMode selects how Serve winds down.
type ShutdownMode string

const (
	// ShutdownGraceful stops accepting, lets queued and running requests
	// finish within ShutdownTimeout, then force-closes what remains.
	ShutdownGraceful ShutdownMode = "graceful"

	// ShutdownForce closes every connection immediately without draining.
	ShutdownForce ShutdownMode = "force"
)

// DefaultShutdownTimeout bounds a graceful drain when none is configured.
const DefaultShutdownTimeout = 30 * time.Second

// Context is the immutable runtime configuration of a Server. It is built
// once at startup and copied into the server; later changes to the
// caller's value have no effect.
type Context struct {
	Host string
	Port int

	// BufferSize bounds the single request read, in bytes.
	BufferSize int

	// QuarantineDir is where QuarantineLocalFile moves files.
	QuarantineDir string

	// Workers is the number of request-handling goroutines.
	Workers int

	// QueueSize is how many dispatched connections may wait for a worker.
	QueueSize int

	// RequestTimeout is the per-connection deadline. Zero disables it.
	RequestTimeout time.Duration

	ShutdownMode    ShutdownMode
	ShutdownTimeout time.Duration
}

// Addr returns the listen address in host:port form.
func (c Context) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate reports the first invalid field.
func (c Context) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", c.BufferSize)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("queue size must not be negative, got %d", c.QueueSize)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative, got %s", c.RequestTimeout)
	}
	switch c.ShutdownMode {
	case "", ShutdownGraceful, ShutdownForce:
	default:
		return fmt.Errorf("unknown shutdown mode %q", c.ShutdownMode)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown timeout must not be negative, got %s", c.ShutdownTimeout)
	}
	return nil
}

func (c Context) withDefaults() Context {
	if c.ShutdownMode == "" {
		c.ShutdownMode = ShutdownGraceful
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	return c
}
