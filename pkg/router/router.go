// Package router maps decoded requests to command handlers and turns their
// results into wire responses.
package router

import (
	"context"
	"errors"
	"sort"

	"github.com/marmos91/sigscan/internal/logger"
	"github.com/marmos91/sigscan/pkg/fileops"
	"github.com/marmos91/sigscan/pkg/protocol"
)

// HandlerFunc executes one command.
type HandlerFunc func(ctx context.Context, params map[string]string) protocol.Response

// Quarantiner moves a file into quarantine. *fileops.Mover satisfies it.
type Quarantiner interface {
	Quarantine(ctx context.Context, path, sessionID string) (string, error)
}

// Router dispatches requests by command name. It is immutable after
// construction and safe for concurrent use.
type Router struct {
	handlers map[string]HandlerFunc
}

// New creates a router serving CheckLocalFile and QuarantineLocalFile.
func New(q Quarantiner) *Router {
	r := &Router{handlers: make(map[string]HandlerFunc, 2)}
	r.handlers[protocol.CmdCheckLocalFile] = checkLocalFile
	r.handlers[protocol.CmdQuarantineLocalFile] = quarantineLocalFile(q)
	return r
}

// Route runs the handler registered for req.Command. Unknown commands get
// the unknown-command response.
func (r *Router) Route(ctx context.Context, req protocol.Request) protocol.Response {
	h, ok := r.handlers[req.Command]
	if !ok {
		var attrs []any
		if lc := logger.FromContext(ctx); lc == nil || lc.Command == "" {
			attrs = append(attrs, logger.Command(req.Command))
		}
		logger.WarnCtx(ctx, "Unknown command", attrs...)
		return protocol.UnknownCommand()
	}

	params := req.Params
	if params == nil {
		params = map[string]string{}
	}
	return h(ctx, params)
}

// Known reports whether command has a handler.
func (r *Router) Known(command string) bool {
	_, ok := r.handlers[command]
	return ok
}

// Commands returns the registered command names, sorted.
func (r *Router) Commands() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkLocalFile(ctx context.Context, params map[string]string) protocol.Response {
	req := fileops.ScanRequest{
		FilePath:  params[protocol.ParamFilePath],
		Signature: params[protocol.ParamSignature],
	}

	offsets, err := fileops.ScanFile(ctx, req)
	if err != nil {
		return errorResponse(ctx, req.FilePath, err)
	}

	logger.InfoCtx(ctx, "Signature scan completed", logger.Path(req.FilePath), logger.Matches(len(offsets)))
	return protocol.Offsets(offsets)
}

func quarantineLocalFile(q Quarantiner) HandlerFunc {
	return func(ctx context.Context, params map[string]string) protocol.Response {
		path := params[protocol.ParamFilePath]

		var sessionID string
		if lc := logger.FromContext(ctx); lc != nil {
			sessionID = lc.SessionID
		}

		if _, err := q.Quarantine(ctx, path, sessionID); err != nil {
			return errorResponse(ctx, path, err)
		}
		return protocol.Quarantined()
	}
}

// errorResponse maps a handler error to its wire shape.
func errorResponse(ctx context.Context, path string, err error) protocol.Response {
	var fe *fileops.Error
	if !errors.As(err, &fe) {
		logger.ErrorCtx(ctx, "Command failed", logger.Path(path), logger.Err(err))
		return protocol.UnexpectedError()
	}

	if fe.IsValidation() {
		logger.DebugCtx(ctx, "Command rejected", logger.Path(path), logger.ErrorCode(fe.Code.String()))
		return protocol.ValidationError(fe.Message())
	}

	logger.ErrorCtx(ctx, "Command I/O failure", logger.Path(path), logger.Err(err))
	return protocol.IOError(fe.Message())
}
