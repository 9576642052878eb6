package server

import (
	"context"
	"errors"
	"io"
	"net"
	"runtime/debug"
	"time"

	"github.com/marmos91/sigscan/internal/logger"
	"github.com/marmos91/sigscan/internal/telemetry"
	"github.com/marmos91/sigscan/pkg/metrics"
	"github.com/marmos91/sigscan/pkg/protocol"
	"go.opentelemetry.io/otel/codes"
)

// unknownCommandLabel replaces unrecognised command names in metrics so
// arbitrary client input cannot grow label cardinality.
const unknownCommandLabel = "unknown"

// serve is the worker task for one session. The connection is always
// closed before it returns.
func (s *Server) serve(ctx context.Context, sess *session) {
	defer func() {
		sess.markClosed()
		s.untrack(sess)
		s.recordPoolStats()
	}()

	if ctx.Err() != nil {
		sess.closeRaw()
		logger.Debug("Session cancelled before handling", logger.SessionID(sess.id))
		return
	}

	conn, err := sess.attach()
	if err != nil {
		if !errors.Is(err, errSessionKilled) {
			logger.Warn("Failed to open connection", logger.SessionID(sess.id), logger.Err(err))
		}
		return
	}
	defer func() {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Debug("Error closing connection", logger.SessionID(sess.id), logger.Err(err))
		}
	}()

	s.handle(ctx, sess, conn)
}

// handle performs the single read, routes the request and writes one
// response.
func (s *Server) handle(ctx context.Context, sess *session, conn net.Conn) {
	start := time.Now()

	ctx, span := telemetry.StartSessionSpan(ctx, sess.id, sess.addr,
		telemetry.ClientIP(sess.clientIP),
		telemetry.FD(sess.fd))
	defer span.End()

	lc := logger.NewLogContext(sess.id, sess.clientIP)
	if tid := telemetry.TraceID(ctx); tid != "" {
		lc = lc.WithTrace(tid)
	}
	ctx = logger.WithContext(ctx, lc)

	if s.sc.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.sc.RequestTimeout)
		defer cancel()
		if err := conn.SetDeadline(time.Now().Add(s.sc.RequestTimeout)); err != nil {
			logger.DebugCtx(ctx, "Failed to set connection deadline", logger.Err(err))
		}
	}

	buf := s.bufs.Get()
	defer s.bufs.Put(buf)

	data, err := protocol.ReadRequest(conn, buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			logger.DebugCtx(ctx, "Peer closed without sending a request")
		} else {
			logger.WarnCtx(ctx, "Failed to read request", logger.Err(err))
			telemetry.RecordError(ctx, err)
		}
		s.recordRequest("", start, metrics.OutcomeNoResponse)
		return
	}

	span.SetAttributes(telemetry.BytesRead(len(data)))
	if s.metrics != nil {
		s.metrics.RecordBytesRead(len(data))
	}

	command, resp := s.respond(ctx, data)
	outcome := classify(resp)
	span.SetAttributes(telemetry.Outcome(outcome))

	payload, err := protocol.Encode(resp)
	if err != nil {
		logger.ErrorCtx(ctx, "Failed to encode response", logger.Err(err))
		payload, _ = protocol.Encode(protocol.UnexpectedError())
		outcome = metrics.OutcomeUnexpected
	}

	if _, err := conn.Write(payload); err != nil {
		logger.WarnCtx(ctx, "Failed to write response", logger.Err(err))
		telemetry.RecordError(ctx, err)
		outcome = metrics.OutcomeConnError
	}

	s.recordRequest(command, start, outcome)
	logger.DebugCtx(ctx, "Request completed",
		logger.Status(outcome),
		logger.DurationMs(logger.Duration(start)))
}

// respond decodes and routes data. A panic anywhere below is answered with
// the unexpected-error response.
func (s *Server) respond(ctx context.Context, data []byte) (command string, resp protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCtx(ctx, "Request handling panicked", "panic", r, "stack", string(debug.Stack()))
			telemetry.SetAttributes(ctx, telemetry.Outcome(metrics.OutcomeUnexpected))
			telemetry.SpanFromContext(ctx).SetStatus(codes.Error, "panic")
			resp = protocol.UnexpectedError()
		}
	}()

	req, err := protocol.DecodeRequest(data)
	if err != nil {
		logger.WarnCtx(ctx, "Invalid request payload", logger.BytesRead(len(data)), logger.Err(err))
		return "", protocol.InvalidJSON()
	}

	command = req.Command
	if !s.handler.Known(command) {
		command = unknownCommandLabel
	}

	ctx = logger.WithContext(ctx, logger.FromContext(ctx).WithCommand(req.Command))
	logger.InfoCtx(ctx, "Command received", logger.Path(req.Param(protocol.ParamFilePath)))

	ctx, span := telemetry.StartCommandSpan(ctx, command,
		telemetry.Path(req.Param(protocol.ParamFilePath)))
	defer span.End()

	resp = s.handler.Route(ctx, req)
	if msg, isErr := resp.ErrorMessage(); isErr {
		span.SetStatus(codes.Error, msg)
	}
	return command, resp
}

func (s *Server) recordRequest(command string, start time.Time, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordRequest(command, time.Since(start), outcome)
	}
}

// classify maps a response to its metrics outcome by its error key.
func classify(resp protocol.Response) string {
	if _, ok := resp[protocol.KeyValidationError]; ok {
		return metrics.OutcomeValidation
	}
	if _, ok := resp[protocol.KeyIOError]; ok {
		return metrics.OutcomeIOError
	}
	if msg, ok := resp[protocol.KeyError]; ok {
		switch msg {
		case protocol.MsgUnknownCommand:
			return metrics.OutcomeUnknown
		case protocol.MsgInvalidJSON:
			return metrics.OutcomeInvalidJSON
		case protocol.MsgConnectionError:
			return metrics.OutcomeConnError
		default:
			return metrics.OutcomeUnexpected
		}
	}
	return metrics.OutcomeOK
}
