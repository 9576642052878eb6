package handlers

import (
	"net/http"
	"time"

	"github.com/marmos91/sigscan/pkg/server"
)

// StatsProvider exposes live server counters. *server.Server satisfies it.
type StatsProvider interface {
	Stats() server.Stats
	Ready() bool
}

// StatusInfo is the static part of the status report, fixed at startup.
type StatusInfo struct {
	Version       string
	StartedAt     time.Time
	Commands      []string
	QuarantineDir string
	ShutdownMode  string
}

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	Version       string       `json:"version"`
	Ready         bool         `json:"ready"`
	StartedAt     time.Time    `json:"started_at"`
	Uptime        string       `json:"uptime"`
	Commands      []string     `json:"commands"`
	QuarantineDir string       `json:"quarantine_dir"`
	ShutdownMode  string       `json:"shutdown_mode"`
	Server        server.Stats `json:"server"`
}

// StatusHandler reports server activity.
type StatusHandler struct {
	server StatsProvider
	info   StatusInfo
}

// NewStatusHandler creates a status handler.
func NewStatusHandler(server StatsProvider, info StatusInfo) *StatusHandler {
	return &StatusHandler{server: server, info: info}
}

// Get handles GET /api/v1/status.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.server == nil {
		ServiceUnavailable(w, "server not initialized")
		return
	}

	resp := StatusResponse{
		Version:       h.info.Version,
		Ready:         h.server.Ready(),
		StartedAt:     h.info.StartedAt,
		Commands:      h.info.Commands,
		QuarantineDir: h.info.QuarantineDir,
		ShutdownMode:  h.info.ShutdownMode,
		Server:        h.server.Stats(),
	}
	if !h.info.StartedAt.IsZero() {
		resp.Uptime = time.Since(h.info.StartedAt).Round(time.Second).String()
	}

	writeJSON(w, http.StatusOK, okResponse(resp))
}
