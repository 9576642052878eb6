package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// useRecorder installs an in-memory span recorder as the active tracer.
func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	mu.Lock()
	prevTracer, prevEnabled := tracer, enabled
	tracer, enabled = tp.Tracer("test"), true
	mu.Unlock()

	t.Cleanup(func() {
		mu.Lock()
		tracer, enabled = prevTracer, prevEnabled
		mu.Unlock()
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func attrMap(kvs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "sigscan", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	require.NoError(t, cfg.Validate())

	cfg.Endpoint = ""
	assert.Error(t, cfg.Validate())

	cfg.Endpoint = "localhost:4317"
	cfg.SampleRate = 1.5
	assert.Error(t, cfg.Validate())
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())
	assert.NotNil(t, Tracer())
}

func TestInitRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Endpoint = ""

	_, err := Init(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNoopHelpers(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartSpan(ctx, "test.operation")
	require.NotNil(t, newCtx)
	span.End()

	require.NotPanics(t, func() {
		AddEvent(ctx, "test.event")
		RecordError(ctx, nil)
		RecordError(ctx, errors.New("test error"))
		SetAttributes(ctx, ClientIP("192.168.1.1"))
	})
	assert.Equal(t, "", TraceID(ctx))
	assert.NotNil(t, SpanFromContext(ctx))
}

func TestSessionAndCommandSpans(t *testing.T) {
	rec := useRecorder(t)

	ctx, session := StartSessionSpan(context.Background(), "sess-1", "10.0.0.1:5555", FD(9))
	assert.NotEmpty(t, TraceID(ctx))

	cmdCtx, cmd := StartCommandSpan(ctx, "CheckLocalFile", Path("/tmp/x"))
	SetAttributes(cmdCtx, Matches(3))
	RecordError(cmdCtx, errors.New("scan failed"))
	cmd.End()
	session.End()

	spans := rec.Ended()
	require.Len(t, spans, 2)

	cmdSpan, sessSpan := spans[0], spans[1]
	assert.Equal(t, "command.CheckLocalFile", cmdSpan.Name())
	assert.Equal(t, SpanSession, sessSpan.Name())
	assert.Equal(t, trace.SpanKindServer, sessSpan.SpanKind())
	assert.Equal(t, sessSpan.SpanContext().SpanID(), cmdSpan.Parent().SpanID())

	sessAttrs := attrMap(sessSpan.Attributes())
	assert.Equal(t, "sess-1", sessAttrs[AttrSessionID].AsString())
	assert.Equal(t, "10.0.0.1:5555", sessAttrs[AttrClientAddr].AsString())
	assert.Equal(t, int64(9), sessAttrs[AttrFD].AsInt64())

	cmdAttrs := attrMap(cmdSpan.Attributes())
	assert.Equal(t, "CheckLocalFile", cmdAttrs[AttrCommand].AsString())
	assert.Equal(t, "/tmp/x", cmdAttrs[AttrPath].AsString())
	assert.Equal(t, int64(3), cmdAttrs[AttrMatches].AsInt64())
	assert.Equal(t, codes.Error, cmdSpan.Status().Code)
}

func TestNewSampler(t *testing.T) {
	assert.Contains(t, newSampler(1).Description(), "AlwaysOnSampler")
	assert.Equal(t, "AlwaysOffSampler", newSampler(0).Description())
	assert.Contains(t, newSampler(0.25).Description(), "TraceIDRatioBased")
}

func TestProfiling(t *testing.T) {
	shutdown, err := InitProfiling(DefaultProfilingConfig())
	require.NoError(t, err)
	assert.NoError(t, shutdown())
	assert.False(t, IsProfilingEnabled())

	cfg := DefaultProfilingConfig()
	cfg.Enabled = true
	cfg.ProfileTypes = []string{"heap"}
	_, err = InitProfiling(cfg)
	assert.Error(t, err)

	assert.True(t, ValidProfileType("goroutines"))
	assert.False(t, ValidProfileType("heap"))
}
