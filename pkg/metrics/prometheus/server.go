// Package prometheus implements the metrics interfaces on the registry
// created by metrics.InitRegistry.
package prometheus

import (
	"time"

	"github.com/marmos91/sigscan/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// serverMetrics is the Prometheus implementation of metrics.ServerMetrics.
type serverMetrics struct {
	connectionsAccepted    prometheus.Counter
	connectionsClosed      prometheus.Counter
	connectionsForceClosed prometheus.Counter
	activeConnections      prometheus.Gauge
	requests               *prometheus.CounterVec
	requestDuration        *prometheus.HistogramVec
	requestBytes           prometheus.Histogram
	callbackErrors         prometheus.Counter
	submitRejected         prometheus.Counter
	poolActive             prometheus.Gauge
	poolQueued             prometheus.Gauge
}

// NewServerMetrics creates a Prometheus-backed ServerMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewServerMetrics() metrics.ServerMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &serverMetrics{
		connectionsAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "sigscan_connections_accepted_total",
				Help: "Total number of accepted connections",
			},
		),
		connectionsClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "sigscan_connections_closed_total",
				Help: "Total number of closed connections",
			},
		),
		connectionsForceClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "sigscan_connections_force_closed_total",
				Help: "Connections closed by shutdown before being served",
			},
		),
		activeConnections: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "sigscan_connections_active",
				Help: "Accepted connections not yet closed",
			},
		),
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigscan_requests_total",
				Help: "Total number of requests by command and outcome",
			},
			[]string{"command", "outcome"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "sigscan_request_duration_milliseconds",
				Help: "Request handling time from dispatch to response in milliseconds",
				Buckets: []float64{
					0.1,  // tiny files, validation errors
					0.5,  // 500us
					1,    // 1ms
					5,    // 5ms
					10,   // 10ms
					50,   // 50ms
					100,  // 100ms
					500,  // large scans
					1000, // 1s
					5000, // 5s
				},
			},
			[]string{"command"},
		),
		requestBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sigscan_request_bytes",
				Help:    "Distribution of request payload sizes",
				Buckets: []float64{64, 128, 256, 512, 1024, 2048, 4096},
			},
		),
		callbackErrors: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "sigscan_reactor_callback_errors_total",
				Help: "Readiness callbacks that failed or panicked",
			},
		),
		submitRejected: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "sigscan_pool_rejected_total",
				Help: "Connections the worker pool refused",
			},
		),
		poolActive: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "sigscan_pool_active_workers",
				Help: "Workers currently handling a connection",
			},
		),
		poolQueued: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "sigscan_pool_queued_tasks",
				Help: "Connections waiting for a worker",
			},
		),
	}
}

func (m *serverMetrics) RecordConnectionAccepted() {
	if m == nil {
		return
	}
	m.connectionsAccepted.Inc()
}

func (m *serverMetrics) RecordConnectionClosed() {
	if m == nil {
		return
	}
	m.connectionsClosed.Inc()
}

func (m *serverMetrics) RecordConnectionForceClosed() {
	if m == nil {
		return
	}
	m.connectionsForceClosed.Inc()
}

func (m *serverMetrics) SetActiveConnections(count int32) {
	if m == nil {
		return
	}
	m.activeConnections.Set(float64(count))
}

func (m *serverMetrics) RecordRequest(command string, duration time.Duration, outcome string) {
	if m == nil {
		return
	}
	if command == "" {
		command = "none"
	}
	m.requests.WithLabelValues(command, outcome).Inc()
	m.requestDuration.WithLabelValues(command).Observe(duration.Seconds() * 1000)
}

func (m *serverMetrics) RecordBytesRead(bytes int) {
	if m == nil {
		return
	}
	m.requestBytes.Observe(float64(bytes))
}

func (m *serverMetrics) RecordCallbackError() {
	if m == nil {
		return
	}
	m.callbackErrors.Inc()
}

func (m *serverMetrics) RecordSubmitRejected() {
	if m == nil {
		return
	}
	m.submitRejected.Inc()
}

func (m *serverMetrics) SetPoolStats(active, queued int) {
	if m == nil {
		return
	}
	m.poolActive.Set(float64(active))
	m.poolQueued.Set(float64(queued))
}
