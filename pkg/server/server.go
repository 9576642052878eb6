// Package server accepts TCP connections on a readiness loop and answers
// one JSON request per connection on a bounded worker pool.
//
// Lifecycle of a connection:
//
//  1. The loop reports the listener readable; the acceptor accepts exactly
//     one connection and registers it for read-readiness.
//  2. When the connection is readable the dispatcher deregisters it and
//     submits it to the pool. Submit blocks while the queue is full, which
//     also pauses accepting; this is the server's only backpressure.
//  3. A worker reads once, routes the request, writes the response and
//     closes the connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/marmos91/sigscan/internal/logger"
	"github.com/marmos91/sigscan/pkg/bufpool"
	"github.com/marmos91/sigscan/pkg/metrics"
	"github.com/marmos91/sigscan/pkg/protocol"
	"github.com/marmos91/sigscan/pkg/reactor"
	"github.com/marmos91/sigscan/pkg/workerpool"
)

// ErrServing is returned when Serve is called more than once.
var ErrServing = errors.New("server already started")

// Handler answers decoded requests. *router.Router satisfies it.
type Handler interface {
	Route(ctx context.Context, req protocol.Request) protocol.Response
	Known(command string) bool
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics installs a metrics recorder. nil disables collection.
func WithMetrics(m metrics.ServerMetrics) Option {
	return func(s *Server) { s.metrics = m }
}

// Stats is a point-in-time view of server activity.
type Stats struct {
	Address           string           `json:"address"`
	ActiveConnections int32            `json:"active_connections"`
	Accepted          int64            `json:"accepted"`
	Pool              workerpool.Stats `json:"pool"`
}

// Server is the scan server. Create it with New and run it with Serve.
//
// All exported methods are safe for concurrent use.
type Server struct {
	sc      Context
	handler Handler
	metrics metrics.ServerMetrics

	loop *reactor.Loop
	pool *workerpool.Pool
	bufs *bufpool.Pool

	listenerMu sync.RWMutex
	listener   *net.TCPListener

	// ListenerReady is closed once the listener is bound.
	ListenerReady chan struct{}

	sessMu   sync.Mutex
	sessions map[string]*session

	connCount atomic.Int32
	accepted  atomic.Int64

	started      atomic.Bool
	forced       atomic.Bool
	shutdownOnce sync.Once
	shutdown     chan struct{}

	// stopping aborts a dispatcher blocked in Submit once shutdown begins.
	stopping   context.Context
	stopSubmit context.CancelFunc

	drainOnce sync.Once
	drained   chan struct{}
	drainErr  error
}

// New validates sc and builds the readiness loop and the worker pool. One
// pool serves the server for its whole lifetime.
func New(sc Context, h Handler, opts ...Option) (*Server, error) {
	if h == nil {
		return nil, errors.New("nil handler")
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server context: %w", err)
	}
	sc = sc.withDefaults()

	s := &Server{
		sc:            sc,
		handler:       h,
		bufs:          bufpool.New(sc.BufferSize),
		ListenerReady: make(chan struct{}),
		sessions:      make(map[string]*session),
		shutdown:      make(chan struct{}),
		drained:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.stopping, s.stopSubmit = context.WithCancel(context.Background())

	loop, err := reactor.New(reactor.WithErrorHandler(func(int, error) {
		if s.metrics != nil {
			s.metrics.RecordCallbackError()
		}
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create readiness loop: %w", err)
	}

	pool, err := workerpool.New(sc.Workers, sc.QueueSize)
	if err != nil {
		_ = loop.Close()
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	s.loop, s.pool = loop, pool
	return s, nil
}

// Context returns a copy of the server's configuration.
func (s *Server) Context() Context {
	return s.sc
}

// Serve binds the listener and runs the readiness loop until ctx is
// cancelled or Stop or Kill is called, then winds down per the shutdown
// mode.
//
// Returns nil on a clean shutdown, or an error if the listener cannot be
// bound, the loop fails, or a graceful drain had to force-close
// connections.
func (s *Server) Serve(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrServing
	}

	ln, err := net.Listen("tcp", s.sc.Addr())
	if err != nil {
		s.initiateShutdown()
		_ = s.drain()
		return fmt.Errorf("failed to listen on %s: %w", s.sc.Addr(), err)
	}
	tcpLn := ln.(*net.TCPListener)

	lfd, err := reactor.ListenerFD(tcpLn)
	if err == nil {
		err = s.loop.Register(lfd, s.onAcceptable)
	}
	if err != nil {
		_ = ln.Close()
		s.initiateShutdown()
		_ = s.drain()
		return fmt.Errorf("failed to watch listener: %w", err)
	}

	s.listenerMu.Lock()
	s.listener = tcpLn
	s.listenerMu.Unlock()
	close(s.ListenerReady)

	logger.Info("Server listening",
		logger.Address(ln.Addr().String()),
		logger.Workers(s.sc.Workers),
		logger.QueueSize(s.sc.QueueSize),
		"buffer_size", s.sc.BufferSize,
		"quarantine_dir", s.sc.QuarantineDir)

	go func() {
		select {
		case <-ctx.Done():
			logger.Info("Server shutdown signal received", logger.Err(ctx.Err()))
			s.initiateShutdown()
		case <-s.shutdown:
		}
	}()

	runErr := s.loop.Run(context.Background())
	if err := ln.Close(); err != nil {
		logger.Debug("Error closing listener", logger.Err(err))
	}

	if runErr != nil && !errors.Is(runErr, reactor.ErrClosed) {
		logger.Error("Readiness loop failed", logger.Err(runErr))
		s.initiateShutdown()
		_ = s.drain()
		return fmt.Errorf("readiness loop failed: %w", runErr)
	}

	return s.drain()
}

// Stop initiates shutdown and waits until it completes or ctx ends.
// Safe to call more than once and before Serve.
func (s *Server) Stop(ctx context.Context) error {
	s.initiateShutdown()

	if !s.started.Load() {
		return s.drain()
	}

	select {
	case <-s.drained:
		return s.drainErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Kill shuts down immediately regardless of the configured mode: in-flight
// requests are cancelled and their connections closed. It may interrupt a
// graceful drain already in progress.
func (s *Server) Kill() {
	s.forced.Store(true)
	s.initiateShutdown()
	s.pool.Stop()
	if n := s.killInFlight(); n > 0 {
		logger.Warn("Force-closed in-flight connections", "count", n)
	}
}

// Addr returns the bound listener address. It blocks until the listener
// is ready.
func (s *Server) Addr() string {
	<-s.ListenerReady

	s.listenerMu.RLock()
	defer s.listenerMu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stats returns current connection and pool counters.
func (s *Server) Stats() Stats {
	var addr string
	s.listenerMu.RLock()
	if s.listener != nil {
		addr = s.listener.Addr().String()
	}
	s.listenerMu.RUnlock()

	return Stats{
		Address:           addr,
		ActiveConnections: s.connCount.Load(),
		Accepted:          s.accepted.Load(),
		Pool:              s.pool.Stats(),
	}
}

// Ready reports whether the server is accepting connections.
func (s *Server) Ready() bool {
	select {
	case <-s.shutdown:
		return false
	default:
	}
	select {
	case <-s.ListenerReady:
		return true
	default:
		return false
	}
}

// onAcceptable runs on the loop goroutine when the listener is readable.
// It accepts exactly one connection.
func (s *Server) onAcceptable(lfd int) error {
	fd, addr, err := reactor.Accept(lfd)
	if err != nil {
		if reactor.IsWouldBlock(err) || s.shuttingDown() {
			return nil
		}
		return fmt.Errorf("accept: %w", err)
	}

	sess := newSession(fd, addr)
	s.track(sess)

	if err := s.loop.Register(fd, func(int) error { return s.onReadable(sess) }); err != nil {
		sess.closeRaw()
		s.untrack(sess)
		return fmt.Errorf("register connection: %w", err)
	}
	sess.setState(stateAwaitingRead)

	s.accepted.Add(1)
	if s.metrics != nil {
		s.metrics.RecordConnectionAccepted()
		s.metrics.SetActiveConnections(s.connCount.Load())
	}
	logger.Debug("Connection accepted",
		logger.SessionID(sess.id),
		logger.FD(fd),
		logger.ClientIP(sess.clientIP),
		"active", s.connCount.Load())
	return nil
}

// onReadable runs on the loop goroutine when a connection has data. The
// descriptor is deregistered before handoff so the loop never reports it
// again.
func (s *Server) onReadable(sess *session) error {
	if err := s.loop.Deregister(sess.fd); err != nil {
		sess.closeRaw()
		s.untrack(sess)
		return fmt.Errorf("deregister connection: %w", err)
	}
	sess.setState(stateDispatched)

	err := s.pool.Submit(s.stopping, func(ctx context.Context) {
		s.serve(ctx, sess)
	})
	if err != nil {
		logger.Warn("Dropping connection: worker pool unavailable",
			logger.SessionID(sess.id),
			logger.ClientIP(sess.clientIP),
			logger.Err(err))
		sess.closeRaw()
		s.untrack(sess)
		if s.metrics != nil {
			s.metrics.RecordSubmitRejected()
		}
		return nil
	}

	s.recordPoolStats()
	return nil
}

func (s *Server) track(sess *session) {
	s.sessMu.Lock()
	s.sessions[sess.id] = sess
	s.sessMu.Unlock()
	s.connCount.Add(1)
}

func (s *Server) untrack(sess *session) {
	s.sessMu.Lock()
	_, ok := s.sessions[sess.id]
	delete(s.sessions, sess.id)
	s.sessMu.Unlock()
	if !ok {
		return
	}

	n := s.connCount.Add(-1)
	if s.metrics != nil {
		s.metrics.RecordConnectionClosed()
		s.metrics.SetActiveConnections(n)
	}
	logger.Debug("Connection closed",
		logger.SessionID(sess.id),
		logger.DurationMs(logger.Duration(sess.start)),
		"active", n)
}

func (s *Server) snapshot() []*session {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()

	out := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

func (s *Server) recordPoolStats() {
	if s.metrics == nil {
		return
	}
	st := s.pool.Stats()
	s.metrics.SetPoolStats(int(st.Active), st.Queued)
}

func (s *Server) shuttingDown() bool {
	select {
	case <-s.shutdown:
		return true
	default:
		return false
	}
}

// initiateShutdown stops intake: no new accepts, no new dispatches.
func (s *Server) initiateShutdown() {
	s.shutdownOnce.Do(func() {
		logger.Debug("Server shutdown initiated", "mode", string(s.sc.ShutdownMode))
		close(s.shutdown)
		s.stopSubmit()
		_ = s.loop.Close()
	})
}

// drain runs the shutdown sequence once; concurrent callers share its
// result.
func (s *Server) drain() error {
	s.drainOnce.Do(func() {
		s.drainErr = s.doDrain()
		close(s.drained)
	})
	return s.drainErr
}

func (s *Server) doDrain() error {
	<-s.loop.Done()

	// The loop is gone, so connections still waiting for their first
	// byte will never be dispatched.
	if n := s.closeAwaiting(); n > 0 {
		logger.Info("Closed idle connections", "count", n)
	}

	if s.sc.ShutdownMode == ShutdownForce || s.forced.Load() {
		s.pool.Stop()
		n := s.killInFlight()
		logger.Info("Server stopped without draining", "force_closed", n)
		return nil
	}

	logger.Info("Graceful shutdown: waiting for in-flight requests",
		"active", s.connCount.Load(),
		"timeout", s.sc.ShutdownTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), s.sc.ShutdownTimeout)
	defer cancel()

	if err := s.pool.Shutdown(ctx); err != nil {
		s.pool.Stop()
		n := s.killInFlight()
		logger.Warn("Shutdown timeout exceeded - forcing closure",
			"force_closed", n,
			"timeout", s.sc.ShutdownTimeout)
		return fmt.Errorf("shutdown timeout: %d connections force-closed", n)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// closeAwaiting closes connections that were accepted but never dispatched.
// Only valid once the loop has stopped.
func (s *Server) closeAwaiting() int {
	n := 0
	for _, sess := range s.snapshot() {
		switch sess.getState() {
		case stateAccepted, stateAwaitingRead:
			sess.closeRaw()
			s.untrack(sess)
			n++
			if s.metrics != nil {
				s.metrics.RecordConnectionForceClosed()
			}
		}
	}
	return n
}

// killInFlight closes connections owned by workers. Workers that have not
// yet picked their session up close the descriptor themselves.
func (s *Server) killInFlight() int {
	n := 0
	for _, sess := range s.snapshot() {
		switch sess.getState() {
		case stateDispatched, stateProcessing:
			if sess.kill() {
				n++
				if s.metrics != nil {
					s.metrics.RecordConnectionForceClosed()
				}
			}
		}
	}
	return n
}
