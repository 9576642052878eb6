// Package client sends one request to a sigscan server and returns its
// response.
//
// Failures never surface as Go errors from Send: like the server, the
// client answers with the wire error shapes, {"error": "Connection error"}
// when the server cannot be reached or stops responding and
// {"error": "Unexpected error"} for anything else.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/marmos91/sigscan/internal/logger"
	"github.com/marmos91/sigscan/pkg/protocol"
)

// DefaultBufferSize matches the server's default read size.
const DefaultBufferSize = 4096

// ErrMalformedParam is returned by ParseParams for an argument that is not
// exactly one key=value pair.
var ErrMalformedParam = errors.New("malformed parameter")

// Config locates the server and bounds the exchange.
type Config struct {
	Host string
	Port int

	// BufferSize is the response chunk size. It should match the server's
	// buffer size.
	BufferSize int

	// Timeout bounds the whole exchange. Zero means no bound, in which case
	// a response whose length is an exact multiple of BufferSize is only
	// delimited by the server closing the connection.
	Timeout time.Duration
}

// Addr returns the server address in host:port form.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Client sends requests to one server. It is safe for concurrent use;
// every request uses its own connection.
type Client struct {
	cfg    Config
	dialer net.Dialer
}

// New creates a client. A non-positive BufferSize uses DefaultBufferSize.
func New(cfg Config) *Client {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	return &Client{cfg: cfg}
}

// SendRequest is a convenience wrapper around New(cfg).Send.
func SendRequest(ctx context.Context, cfg Config, command string, params map[string]string) protocol.Response {
	return New(cfg).Send(ctx, command, params)
}

// Send performs one exchange and maps any failure to its wire response.
func (c *Client) Send(ctx context.Context, command string, params map[string]string) protocol.Response {
	resp, err := c.Do(ctx, protocol.NewRequest(command, params))
	if err == nil {
		return resp
	}

	if IsConnectionError(err) {
		logger.Debug("Connection error", logger.Address(c.cfg.Addr()), logger.Err(err))
		return protocol.ConnectionError()
	}
	logger.Debug("Unexpected client error", logger.Address(c.cfg.Addr()), logger.Err(err))
	return protocol.UnexpectedError()
}

// Do performs one exchange and returns the decoded response or the
// underlying error.
func (c *Client) Do(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	conn, err := c.dialer.DialContext(ctx, "tcp", c.cfg.Addr())
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("set deadline: %w", err)
		}
	}
	// Unblock I/O on cancellation as well as on the deadline.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Unix(1, 0)) })
	defer stop()

	payload, err := protocol.Encode(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	if _, err := conn.Write(payload); err != nil {
		return nil, err
	}

	data, err := protocol.ReadResponse(conn, c.cfg.BufferSize)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	resp, err := protocol.DecodeResponse(data)
	if err != nil {
		return nil, fmt.Errorf("decode response (%d bytes): %w", len(data), err)
	}
	return resp, nil
}

// IsConnectionError reports whether err means the server could not be
// reached or stopped responding: refused, reset, broken pipe, any dial
// failure, or a timeout.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ParseParams turns key=value arguments into a parameter map. Each argument
// must contain exactly one '='. Later duplicates win.
func ParseParams(args []string) (map[string]string, error) {
	params := make(map[string]string, len(args))
	for _, arg := range args {
		if strings.Count(arg, "=") != 1 {
			return nil, fmt.Errorf("%w %q: expected key=value", ErrMalformedParam, arg)
		}
		key, value, _ := strings.Cut(arg, "=")
		params[key] = value
	}
	return params, nil
}
