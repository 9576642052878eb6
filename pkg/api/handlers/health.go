package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/marmos91/sigscan/pkg/journal"
)

// ReadinessChecker reports whether the scan server accepts connections.
// *server.Server satisfies it.
type ReadinessChecker interface {
	Ready() bool
}

// HealthHandler handles health check endpoints.
//
// Health endpoints provide:
//   - Liveness probe: Is the process running?
//   - Readiness probe: Is the scan server listening and the journal reachable?
type HealthHandler struct {
	server  ReadinessChecker
	journal journal.Store
}

// NewHealthHandler creates a new health handler. Either argument may be
// nil; a nil server makes the readiness probe fail.
func NewHealthHandler(server ReadinessChecker, store journal.Store) *HealthHandler {
	return &HealthHandler{server: server, journal: store}
}

// Liveness handles GET /health.
//
// Returns 200 OK as long as the HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "sigscan",
	}))
}

// ComponentHealth is the health of one dependency.
type ComponentHealth struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Readiness handles GET /health/ready.
//
// Returns 200 OK when the scan server is accepting connections and the
// journal answers its health check, 503 otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.server == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("server not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	components := make([]ComponentHealth, 0, 2)
	allHealthy := true

	listener := ComponentHealth{Name: "listener", Status: "healthy"}
	if !h.server.Ready() {
		listener.Status = "unhealthy"
		listener.Error = "not accepting connections"
		allHealthy = false
	}
	components = append(components, listener)

	if h.journal != nil {
		start := time.Now()
		err := h.journal.Healthcheck(ctx)

		health := ComponentHealth{
			Name:    "journal",
			Status:  "healthy",
			Latency: time.Since(start).String(),
		}
		if err != nil {
			health.Status = "unhealthy"
			health.Error = err.Error()
			allHealthy = false
		}
		components = append(components, health)
	}

	if allHealthy {
		writeJSON(w, http.StatusOK, healthyResponse(components))
	} else {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponseWithData(components))
	}
}
