package metrics

import (
	"time"
)

// Request outcomes used as the outcome label.
const (
	OutcomeOK          = "ok"
	OutcomeValidation  = "validation_error"
	OutcomeIOError     = "io_error"
	OutcomeUnknown     = "unknown_command"
	OutcomeInvalidJSON = "invalid_json"
	OutcomeConnError   = "connection_error"
	OutcomeUnexpected  = "unexpected_error"
	OutcomeNoResponse  = "no_response"
)

// ServerMetrics provides observability for the scan server.
//
// The interface is optional: pass nil to disable collection.
//
//	m := prometheus.NewServerMetrics() // nil unless InitRegistry was called
//	srv, err := server.New(cfg, router, server.WithMetrics(m))
type ServerMetrics interface {
	// RecordConnectionAccepted increments the accepted connections counter.
	RecordConnectionAccepted()

	// RecordConnectionClosed increments the closed connections counter.
	RecordConnectionClosed()

	// RecordConnectionForceClosed counts connections closed by shutdown
	// before they were served.
	RecordConnectionForceClosed()

	// SetActiveConnections updates the count of accepted, unclosed connections.
	SetActiveConnections(count int32)

	// RecordRequest records a finished request.
	//
	// Parameters:
	//   - command: routed command name, or "" when none was decoded
	//   - duration: time from dispatch to response written
	//   - outcome: one of the Outcome* constants
	RecordRequest(command string, duration time.Duration, outcome string)

	// RecordBytesRead records the size of a request payload.
	RecordBytesRead(bytes int)

	// RecordCallbackError counts failed or panicking readiness callbacks.
	RecordCallbackError()

	// RecordSubmitRejected counts connections the worker pool refused.
	RecordSubmitRejected()

	// SetPoolStats updates worker pool gauges.
	SetPoolStats(active, queued int)
}

// JournalMetrics provides observability for quarantine journal stores.
type JournalMetrics interface {
	// ObserveOperation records one store operation ("record", "list", "get")
	// with its latency and whether it failed.
	ObserveOperation(op string, duration time.Duration, err error)
}
