package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/sigscan/pkg/reactor"
)

// sessionState tracks a connection through its single handling attempt.
type sessionState int

const (
	stateAccepted sessionState = iota
	stateAwaitingRead
	stateDispatched
	stateProcessing
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateAccepted:
		return "accepted"
	case stateAwaitingRead:
		return "awaiting-read"
	case stateDispatched:
		return "dispatched"
	case stateProcessing:
		return "processing"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var errSessionKilled = errors.New("session closed by shutdown")

// session is one accepted connection. The raw descriptor is owned by the
// loop until dispatch, then by the worker, which wraps it in conn.
type session struct {
	id       string
	fd       int
	addr     string
	clientIP string
	start    time.Time

	mu     sync.Mutex
	state  sessionState
	conn   net.Conn
	killed bool
}

func newSession(fd int, addr string) *session {
	ip := addr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		ip = host
	}
	return &session{
		id:       uuid.NewString(),
		fd:       fd,
		addr:     addr,
		clientIP: ip,
		start:    time.Now(),
		state:    stateAccepted,
	}
}

func (s *session) setState(st sessionState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *session) getState() sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// attach wraps the descriptor in a net.Conn on the worker. The raw
// descriptor is released either way.
func (s *session) attach() (net.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.killed {
		_ = reactor.CloseFD(s.fd)
		s.state = stateClosed
		return nil, errSessionKilled
	}

	f := os.NewFile(uintptr(s.fd), "sigscan-"+s.id)
	conn, err := net.FileConn(f)
	// FileConn duplicates the descriptor.
	_ = f.Close()
	if err != nil {
		s.state = stateClosed
		return nil, fmt.Errorf("wrap fd %d: %w", s.fd, err)
	}

	s.conn = conn
	s.state = stateProcessing
	return conn, nil
}

// kill marks the session for closure and closes its connection if the
// worker already holds one. It reports whether anything was closed.
func (s *session) kill() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateClosed || s.killed {
		return false
	}
	s.killed = true
	if s.conn != nil {
		_ = s.conn.Close()
	}
	return true
}

// closeRaw closes a descriptor that was never handed to a worker.
func (s *session) closeRaw() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateClosed {
		return
	}
	_ = reactor.CloseFD(s.fd)
	s.state = stateClosed
}

func (s *session) markClosed() {
	s.setState(stateClosed)
}
