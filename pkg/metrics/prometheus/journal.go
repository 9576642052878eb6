package prometheus

import (
	"time"

	"github.com/marmos91/sigscan/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// journalMetrics is the Prometheus implementation of metrics.JournalMetrics.
type journalMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewJournalMetrics creates a Prometheus-backed journal metrics instance
// labelled with the store backend ("memory", "badger").
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewJournalMetrics(backend string) metrics.JournalMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()
	labels := prometheus.Labels{"backend": backend}

	return &journalMetrics{
		operations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name:        "sigscan_journal_operations_total",
				Help:        "Total number of quarantine journal operations by operation and status",
				ConstLabels: labels,
			},
			[]string{"operation", "status"}, // status: "ok", "error"
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "sigscan_journal_operation_duration_milliseconds",
				Help:        "Duration of quarantine journal operations in milliseconds",
				ConstLabels: labels,
				Buckets:     []float64{0.05, 0.1, 0.5, 1, 5, 10, 50, 100},
			},
			[]string{"operation"},
		),
	}
}

func (m *journalMetrics) ObserveOperation(op string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	m.operations.WithLabelValues(op, status).Inc()
	m.duration.WithLabelValues(op).Observe(duration.Seconds() * 1000)
}
