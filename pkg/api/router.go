package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/sigscan/internal/logger"
	"github.com/marmos91/sigscan/pkg/api/handlers"
	"github.com/marmos91/sigscan/pkg/journal"
	"github.com/marmos91/sigscan/pkg/metrics"
)

// Dependencies are the components the API reports on. Any field may be nil;
// the matching endpoints then answer 503 or are not mounted.
type Dependencies struct {
	Server  handlers.StatsProvider
	Journal journal.Store
	Info    handlers.StatusInfo
}

// NewRouter creates and configures the chi router with all middleware and routes.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /metrics - Prometheus metrics (when metrics are enabled)
//   - GET /api/v1/status - Server counters
//   - GET /api/v1/quarantine - Quarantine journal
//   - GET /api/v1/quarantine/{id} - One journal entry
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	var ready handlers.ReadinessChecker
	if deps.Server != nil {
		ready = deps.Server
	}
	healthHandler := handlers.NewHealthHandler(ready, deps.Journal)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	if reg := metrics.GetRegistry(); reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}

	statusHandler := handlers.NewStatusHandler(deps.Server, deps.Info)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", statusHandler.Get)

		if deps.Journal != nil {
			quarantineHandler := handlers.NewQuarantineHandler(deps.Journal)
			r.Route("/quarantine", func(r chi.Router) {
				r.Get("/", quarantineHandler.List)
				r.Get("/{id}", quarantineHandler.Get)
			})
		}
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger logs each request using the internal logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Info("API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.DurationMs(logger.Duration(start)),
		)
	})
}
