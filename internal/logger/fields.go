package logger

import (
	"log/slog"
)

// Standard field keys. Use them consistently so logs can be queried by field.
const (
	// Tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Session & connection
	KeySessionID = "session_id"
	KeyClientIP  = "client_ip"
	KeyFD        = "fd"
	KeyAddress   = "address"

	// Request
	KeyCommand   = "command"
	KeyBytesRead = "bytes_read"
	KeyStatus    = "status"

	// Files
	KeyPath        = "path"
	KeyDestination = "destination"
	KeySize        = "size"
	KeyMatches     = "matches"

	// Workers
	KeyWorkers   = "workers"
	KeyQueueSize = "queue_size"

	// Operation metadata
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"
)

// TraceID returns a slog.Attr for an OpenTelemetry trace ID.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SessionID returns a slog.Attr for a session identifier.
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// ClientIP returns a slog.Attr for a peer address.
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// FD returns a slog.Attr for a file descriptor number.
func FD(fd int) slog.Attr {
	return slog.Int(KeyFD, fd)
}

// Address returns a slog.Attr for a listen or dial address.
func Address(addr string) slog.Attr {
	return slog.String(KeyAddress, addr)
}

// Command returns a slog.Attr for a command name.
func Command(name string) slog.Attr {
	return slog.String(KeyCommand, name)
}

// BytesRead returns a slog.Attr for a byte count read off the wire.
func BytesRead(n int) slog.Attr {
	return slog.Int(KeyBytesRead, n)
}

// Status returns a slog.Attr for an outcome label.
func Status(s string) slog.Attr {
	return slog.String(KeyStatus, s)
}

// Path returns a slog.Attr for a file path.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Destination returns a slog.Attr for the target of a move.
func Destination(p string) slog.Attr {
	return slog.String(KeyDestination, p)
}

// Size returns a slog.Attr for a file size in bytes.
func Size(n int64) slog.Attr {
	return slog.Int64(KeySize, n)
}

// Matches returns a slog.Attr for a signature match count.
func Matches(n int) slog.Attr {
	return slog.Int(KeyMatches, n)
}

// Workers returns a slog.Attr for a worker count.
func Workers(n int) slog.Attr {
	return slog.Int(KeyWorkers, n)
}

// QueueSize returns a slog.Attr for a queue capacity.
func QueueSize(n int) slog.Attr {
	return slog.Int(KeyQueueSize, n)
}

// DurationMs returns a slog.Attr for a duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error. A nil error yields an empty Attr,
// which handlers skip.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a classified error kind.
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}
