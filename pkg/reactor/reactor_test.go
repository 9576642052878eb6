//go:build unix

package reactor

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func newPipe(t *testing.T) (r, w int) {
	t.Helper()
	var p [2]int
	require.NoError(t, unix.Pipe(p[:]))
	t.Cleanup(func() {
		_ = unix.Close(p[0])
		_ = unix.Close(p[1])
	})
	return p[0], p[1]
}

func runLoop(t *testing.T, l *Loop) (<-chan error, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		_ = l.Close()
		<-l.Done()
	})
	return errc, cancel
}

func TestLoop_DispatchesReadiness(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	r, w := newPipe(t)
	got := make(chan int, 1)
	require.NoError(t, l.Register(r, func(fd int) error {
		var buf [16]byte
		_, _ = unix.Read(fd, buf[:])
		assert.NoError(t, l.Deregister(fd))
		got <- fd
		return nil
	}))

	runLoop(t, l)

	_, err = unix.Write(w, []byte("x"))
	require.NoError(t, err)

	select {
	case fd := <-got:
		assert.Equal(t, r, fd)
	case <-time.After(5 * time.Second):
		t.Fatal("callback not invoked")
	}
	assert.Empty(t, l.Registered())
}

func TestLoop_IdleUntilTraffic(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	r, w := newPipe(t)
	var calls atomic.Int32
	require.NoError(t, l.Register(r, func(fd int) error {
		var buf [16]byte
		_, _ = unix.Read(fd, buf[:])
		calls.Add(1)
		return nil
	}))

	runLoop(t, l)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls.Load())

	_, err = unix.Write(w, []byte("x"))
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 5*time.Second, 5*time.Millisecond)
}

func TestLoop_RegisterWhileRunning(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	runLoop(t, l)

	// Give Run a chance to block in the kernel first.
	time.Sleep(20 * time.Millisecond)

	r, w := newPipe(t)
	got := make(chan struct{}, 1)
	require.NoError(t, l.Register(r, func(fd int) error {
		_ = l.Deregister(fd)
		got <- struct{}{}
		return nil
	}))

	_, err = unix.Write(w, []byte("x"))
	require.NoError(t, err)

	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("late registration never dispatched")
	}
}

func TestLoop_RegistrationErrors(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	defer l.Close()

	r, _ := newPipe(t)
	noop := func(int) error { return nil }

	require.NoError(t, l.Register(r, noop))
	assert.ErrorIs(t, l.Register(r, noop), ErrAlreadyRegistered)
	assert.Error(t, l.Register(r+1000, nil))

	require.NoError(t, l.Deregister(r))
	assert.ErrorIs(t, l.Deregister(r), ErrNotRegistered)
}

func TestLoop_Close(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	errc, _ := runLoop(t, l)
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}

	<-l.Done()
	r, _ := newPipe(t)
	assert.ErrorIs(t, l.Register(r, func(int) error { return nil }), ErrClosed)
}

func TestLoop_CloseBeforeRun(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	require.NoError(t, l.Close())

	assert.ErrorIs(t, l.Run(context.Background()), ErrClosed)
	<-l.Done()
}

func TestLoop_ContextCancel(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	errc, cancel := runLoop(t, l)
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestLoop_RunTwice(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	runLoop(t, l)

	require.Eventually(t, l.running.Load, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, l.Run(context.Background()), ErrRunning)
}

func TestLoop_CallbackFailuresAreIsolated(t *testing.T) {
	var (
		mu     sync.Mutex
		failed []error
	)
	l, err := New(WithErrorHandler(func(fd int, err error) {
		mu.Lock()
		failed = append(failed, err)
		mu.Unlock()
	}))
	require.NoError(t, err)

	panicR, panicW := newPipe(t)
	errR, errW := newPipe(t)
	okR, okW := newPipe(t)

	require.NoError(t, l.Register(panicR, func(fd int) error {
		_ = l.Deregister(fd)
		panic("boom")
	}))
	require.NoError(t, l.Register(errR, func(fd int) error {
		_ = l.Deregister(fd)
		return errors.New("bad descriptor state")
	}))

	ok := make(chan struct{}, 1)
	require.NoError(t, l.Register(okR, func(fd int) error {
		_ = l.Deregister(fd)
		ok <- struct{}{}
		return nil
	}))

	errc, _ := runLoop(t, l)

	for _, w := range []int{panicW, errW} {
		_, err := unix.Write(w, []byte("x"))
		require.NoError(t, err)
	}
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(failed) == 2
	}, 5*time.Second, 5*time.Millisecond)

	_, err = unix.Write(okW, []byte("x"))
	require.NoError(t, err)
	select {
	case <-ok:
	case <-time.After(5 * time.Second):
		t.Fatal("loop stopped dispatching after a failing callback")
	}

	select {
	case err := <-errc:
		t.Fatalf("Run returned early: %v", err)
	default:
	}
}

func TestAccept(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	lfd, err := ListenerFD(ln.(*net.TCPListener))
	require.NoError(t, err)

	// Nothing pending yet.
	_, _, err = Accept(lfd)
	require.Error(t, err)
	assert.True(t, IsWouldBlock(err))

	l, err := New()
	require.NoError(t, err)

	type accepted struct {
		fd   int
		addr string
	}
	got := make(chan accepted, 1)
	require.NoError(t, l.Register(lfd, func(fd int) error {
		nfd, addr, err := Accept(fd)
		if IsWouldBlock(err) {
			return nil
		}
		if err != nil {
			return err
		}
		got <- accepted{nfd, addr}
		return nil
	}))
	runLoop(t, l)

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	select {
	case a := <-got:
		defer CloseFD(a.fd)
		assert.Equal(t, conn.LocalAddr().String(), a.addr)

		flags, err := unix.FcntlInt(uintptr(a.fd), unix.F_GETFL, 0)
		require.NoError(t, err)
		assert.NotZero(t, flags&unix.O_NONBLOCK)
	case <-time.After(5 * time.Second):
		t.Fatal("connection not accepted")
	}
}
