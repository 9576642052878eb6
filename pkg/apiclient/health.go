package apiclient

import (
	"context"
	"encoding/json"
	"errors"
)

// ComponentHealth is the health of one server dependency.
type ComponentHealth struct {
	Name    string `json:"name" yaml:"name"`
	Status  string `json:"status" yaml:"status"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
	Latency string `json:"latency,omitempty" yaml:"latency,omitempty"`
}

// Health calls the liveness probe.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil, nil)
}

// Ready calls the readiness probe and returns the per-component report.
// An unhealthy server yields the report together with an *APIError.
func (c *Client) Ready(ctx context.Context) ([]ComponentHealth, error) {
	var components []ComponentHealth
	err := c.get(ctx, "/health/ready", nil, &components)
	if err == nil {
		return components, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsUnavailable() && len(apiErr.data) > 0 {
		_ = json.Unmarshal(apiErr.data, &components)
	}
	return components, err
}
