package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys. Client keys follow OpenTelemetry semantic conventions;
// the rest use the "sigscan." prefix.
const (
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	AttrSessionID = "sigscan.session_id"
	AttrFD        = "sigscan.fd"
	AttrCommand   = "sigscan.command"
	AttrBytesRead = "sigscan.bytes_read"
	AttrOutcome   = "sigscan.outcome"

	AttrPath        = "file.path"
	AttrDestination = "sigscan.destination"
	AttrMatches     = "sigscan.matches"
)

// Span names.
const (
	// SpanSession covers one connection from dispatch to close.
	SpanSession = "sigscan.session"

	// SpanCommandPrefix prefixes per-command child spans ("command.CheckLocalFile").
	SpanCommandPrefix = "command."
)

func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

func SessionID(id string) attribute.KeyValue {
	return attribute.String(AttrSessionID, id)
}

func FD(fd int) attribute.KeyValue {
	return attribute.Int(AttrFD, fd)
}

func Command(name string) attribute.KeyValue {
	return attribute.String(AttrCommand, name)
}

func BytesRead(n int) attribute.KeyValue {
	return attribute.Int(AttrBytesRead, n)
}

func Outcome(outcome string) attribute.KeyValue {
	return attribute.String(AttrOutcome, outcome)
}

func Path(p string) attribute.KeyValue {
	return attribute.String(AttrPath, p)
}

func Destination(p string) attribute.KeyValue {
	return attribute.String(AttrDestination, p)
}

func Matches(n int) attribute.KeyValue {
	return attribute.Int(AttrMatches, n)
}

// StartSessionSpan starts the root span for one connection.
func StartSessionSpan(ctx context.Context, sessionID, clientAddr string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{
		SessionID(sessionID),
		ClientAddr(clientAddr),
	}, attrs...)

	return StartSpan(ctx, SpanSession,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(all...),
	)
}

// StartCommandSpan starts a child span for a routed command.
func StartCommandSpan(ctx context.Context, command string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{Command(command)}, attrs...)
	return StartSpan(ctx, SpanCommandPrefix+command, trace.WithAttributes(all...))
}
