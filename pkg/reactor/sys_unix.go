//go:build unix

package reactor

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

func newWakePipe() (r, w int, err error) {
	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		return -1, -1, err
	}
	for _, fd := range p {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			_ = unix.Close(p[0])
			_ = unix.Close(p[1])
			return -1, -1, err
		}
	}
	return p[0], p[1], nil
}

// writeWake posts a wake-up. A full pipe already guarantees one.
func writeWake(fd int) {
	_, _ = unix.Write(fd, []byte{1})
}

func drainWake(fd int) {
	var buf [64]byte
	for {
		n, err := unix.Read(fd, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func closeFD(fd int) {
	if fd >= 0 {
		_ = unix.Close(fd)
	}
}

// CloseFD closes a raw descriptor obtained from Accept.
func CloseFD(fd int) error {
	return unix.Close(fd)
}

// ListenerFD returns the descriptor backing l. The descriptor stays owned
// by l and is valid until l is closed.
func ListenerFD(l *net.TCPListener) (int, error) {
	rc, err := l.SyscallConn()
	if err != nil {
		return -1, err
	}

	fd := -1
	if err := rc.Control(func(s uintptr) { fd = int(s) }); err != nil {
		return -1, err
	}
	return fd, nil
}

// Accept takes one pending connection from the listening descriptor lfd.
// The returned descriptor is non-blocking and close-on-exec. When nothing
// is pending the error satisfies IsWouldBlock.
func Accept(lfd int) (int, string, error) {
	for {
		nfd, sa, err := unix.Accept(lfd)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return -1, "", err
		}

		unix.CloseOnExec(nfd)
		if err := unix.SetNonblock(nfd, true); err != nil {
			_ = unix.Close(nfd)
			return -1, "", fmt.Errorf("set nonblock: %w", err)
		}
		return nfd, sockaddrString(sa), nil
	}
}

// IsWouldBlock reports whether err means the operation found nothing ready.
func IsWouldBlock(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK)
}

func sockaddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	case *unix.SockaddrInet6:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	case *unix.SockaddrUnix:
		return a.Name
	default:
		return ""
	}
}
