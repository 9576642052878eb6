// Package reactor implements a single-goroutine readiness loop over raw
// file descriptors.
//
// A Loop blocks in the kernel (epoll on Linux, poll(2) elsewhere on Unix)
// until at least one registered descriptor is readable, then invokes that
// descriptor's callback on the loop goroutine. There is no wait timeout: an
// idle loop sleeps until traffic arrives or it is closed.
//
// Callbacks must not block. An error or panic from one callback is logged
// and does not stop the loop or affect other descriptors.
package reactor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/marmos91/sigscan/internal/logger"
)

var (
	// ErrClosed is returned by Run after Close, and by Register on a closed loop.
	ErrClosed = errors.New("reactor closed")

	// ErrRunning is returned when Run is called on a loop that is already running.
	ErrRunning = errors.New("reactor already running")

	// ErrAlreadyRegistered is returned when registering a descriptor twice.
	ErrAlreadyRegistered = errors.New("descriptor already registered")

	// ErrNotRegistered is returned when deregistering an unknown descriptor.
	ErrNotRegistered = errors.New("descriptor not registered")
)

// Callback handles read-readiness of fd. It runs on the loop goroutine.
type Callback func(fd int) error

// ErrorHandler observes callback failures. Panics arrive as errors.
type ErrorHandler func(fd int, err error)

// Option configures a Loop.
type Option func(*Loop)

// WithErrorHandler installs h to observe callback errors in addition to
// logging them.
func WithErrorHandler(h ErrorHandler) Option {
	return func(l *Loop) { l.onError = h }
}

// poller is the platform readiness primitive.
type poller interface {
	add(fd int) error
	del(fd int) error
	// wait blocks until at least one descriptor is ready and appends the
	// ready descriptors to ready. An interrupted wait returns no descriptors
	// and no error.
	wait(ready []int) ([]int, error)
	close() error
}

// Loop is a readiness loop. Create it with New.
type Loop struct {
	p       poller
	onError ErrorHandler

	mu        sync.RWMutex
	callbacks map[int]Callback

	wakeR, wakeW int

	running     atomic.Bool
	dispatching atomic.Bool
	closed      atomic.Bool
	closeOnce   sync.Once
	releaseOnce sync.Once
	done        chan struct{}
}

// New creates a loop. It fails with errors.ErrUnsupported on platforms
// without a readiness primitive.
func New(opts ...Option) (*Loop, error) {
	p, err := newPoller()
	if err != nil {
		return nil, err
	}

	r, w, err := newWakePipe()
	if err != nil {
		_ = p.close()
		return nil, fmt.Errorf("failed to create wake pipe: %w", err)
	}

	if err := p.add(r); err != nil {
		_ = p.close()
		closeFD(r)
		closeFD(w)
		return nil, fmt.Errorf("failed to register wake pipe: %w", err)
	}

	l := &Loop{
		p:         p,
		callbacks: make(map[int]Callback),
		wakeR:     r,
		wakeW:     w,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Register starts watching fd for read-readiness.
//
// A descriptor may be registered at most once at a time; deregister it
// before handing it to another owner.
func (l *Loop) Register(fd int, cb Callback) error {
	if cb == nil {
		return errors.New("nil callback")
	}
	if l.closed.Load() {
		return ErrClosed
	}

	l.mu.Lock()
	if _, ok := l.callbacks[fd]; ok {
		l.mu.Unlock()
		return ErrAlreadyRegistered
	}
	l.callbacks[fd] = cb
	l.mu.Unlock()

	if err := l.p.add(fd); err != nil {
		l.mu.Lock()
		delete(l.callbacks, fd)
		l.mu.Unlock()
		return fmt.Errorf("failed to register fd %d: %w", fd, err)
	}

	l.nudge()
	return nil
}

// Deregister stops watching fd. It does not close fd.
func (l *Loop) Deregister(fd int) error {
	l.mu.Lock()
	if _, ok := l.callbacks[fd]; !ok {
		l.mu.Unlock()
		return ErrNotRegistered
	}
	delete(l.callbacks, fd)
	l.mu.Unlock()

	if err := l.p.del(fd); err != nil {
		return fmt.Errorf("failed to deregister fd %d: %w", fd, err)
	}

	l.nudge()
	return nil
}

// Registered returns the descriptors currently watched, in no particular
// order.
func (l *Loop) Registered() []int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	fds := make([]int, 0, len(l.callbacks))
	for fd := range l.callbacks {
		fds = append(fds, fd)
	}
	return fds
}

// Run dispatches readiness events until Close is called or ctx is
// cancelled. It returns ErrClosed or ctx.Err() on deliberate shutdown and
// any other error only if the kernel wait itself fails.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer l.release()

	stop := context.AfterFunc(ctx, l.wake)
	defer stop()

	ready := make([]int, 0, 64)
	for {
		if l.closed.Load() {
			return ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		ready, err = l.p.wait(ready[:0])
		if err != nil {
			if l.closed.Load() {
				return ErrClosed
			}
			return fmt.Errorf("readiness wait failed: %w", err)
		}

		l.dispatching.Store(true)
		for _, fd := range ready {
			if fd == l.wakeR {
				drainWake(l.wakeR)
				continue
			}

			l.mu.RLock()
			cb := l.callbacks[fd]
			l.mu.RUnlock()

			// An earlier callback in this batch may have deregistered fd.
			if cb == nil {
				continue
			}
			l.invoke(fd, cb)
		}
		l.dispatching.Store(false)
	}
}

// Done is closed once kernel resources are released: after Run returns, or
// at Close if Run never started.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Close stops the loop. It is safe to call from any goroutine, including
// from a callback, and more than once. Close does not wait for Run to
// return; use Done for that. Registered descriptors are not closed.
func (l *Loop) Close() error {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		if l.running.Load() {
			l.wake()
		} else {
			l.release()
		}
	})
	return nil
}

// invoke runs cb, containing errors and panics.
func (l *Loop) invoke(fd int, cb Callback) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Reactor callback panicked", logger.FD(fd), "panic", r, "stack", string(debug.Stack()))
			l.reportError(fd, fmt.Errorf("callback panic: %v", r))
		}
	}()

	if err := cb(fd); err != nil {
		logger.Warn("Reactor callback failed", logger.FD(fd), logger.Err(err))
		l.reportError(fd, err)
	}
}

func (l *Loop) reportError(fd int, err error) {
	if l.onError != nil {
		l.onError(fd, err)
	}
}

// nudge wakes the loop when the descriptor set changes outside callback
// dispatch, so snapshot-based pollers pick up the change. During dispatch
// the next wait rebuilds its view anyway.
func (l *Loop) nudge() {
	if l.running.Load() && !l.dispatching.Load() {
		l.wake()
	}
}

func (l *Loop) wake() {
	writeWake(l.wakeW)
}

// release frees the poller and wake pipe exactly once.
func (l *Loop) release() {
	l.releaseOnce.Do(func() {
		if err := l.p.close(); err != nil {
			logger.Debug("Reactor poller close failed", logger.Err(err))
		}
		closeFD(l.wakeR)
		closeFD(l.wakeW)
		close(l.done)
	})
}
