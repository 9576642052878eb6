package apiclient

import (
	"context"
	"time"

	"github.com/marmos91/sigscan/pkg/server"
)

// Status is the server status report.
type Status struct {
	Version       string       `json:"version" yaml:"version"`
	Ready         bool         `json:"ready" yaml:"ready"`
	StartedAt     time.Time    `json:"started_at" yaml:"started_at"`
	Uptime        string       `json:"uptime" yaml:"uptime"`
	Commands      []string     `json:"commands" yaml:"commands"`
	QuarantineDir string       `json:"quarantine_dir" yaml:"quarantine_dir"`
	ShutdownMode  string       `json:"shutdown_mode" yaml:"shutdown_mode"`
	Server        server.Stats `json:"server" yaml:"server"`
}

// Status fetches the server status.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var status Status
	if err := c.get(ctx, "/api/v1/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
