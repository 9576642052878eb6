package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/sigscan/internal/logger"
	"github.com/marmos91/sigscan/pkg/journal"
)

// maxListLimit caps a single journal page.
const maxListLimit = 1000

// QuarantineHandler serves the quarantine journal.
type QuarantineHandler struct {
	store journal.Store
}

// NewQuarantineHandler creates a quarantine journal handler.
func NewQuarantineHandler(store journal.Store) *QuarantineHandler {
	return &QuarantineHandler{store: store}
}

// List handles GET /api/v1/quarantine.
//
// Query parameters:
//   - limit: maximum entries to return (default 100, max 1000)
//   - since: RFC 3339 timestamp; older entries are skipped
func (h *QuarantineHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := journal.ListOptions{Limit: 100}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			BadRequest(w, "limit must be a positive integer")
			return
		}
		opts.Limit = min(limit, maxListLimit)
	}

	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			BadRequest(w, "since must be an RFC 3339 timestamp")
			return
		}
		opts.Since = since
	}

	entries, err := h.store.List(r.Context(), opts)
	if err != nil {
		logger.Error("Failed to list quarantine journal", logger.Err(err))
		InternalServerError(w, "Failed to list quarantine journal")
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}

	writeJSON(w, http.StatusOK, okResponse(entries))
}

// Get handles GET /api/v1/quarantine/{id}.
func (h *QuarantineHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			NotFound(w, "Journal entry not found")
			return
		}
		logger.Error("Failed to get journal entry", "id", id, logger.Err(err))
		InternalServerError(w, "Failed to get journal entry")
		return
	}

	writeJSON(w, http.StatusOK, okResponse(entry))
}
