//go:build !unix

package reactor

import (
	"errors"
	"net"
)

func newPoller() (poller, error) {
	return nil, errors.ErrUnsupported
}

func newWakePipe() (int, int, error) {
	return -1, -1, errors.ErrUnsupported
}

func writeWake(int) {}

func drainWake(int) {}

func closeFD(int) {}

// CloseFD closes a raw descriptor obtained from Accept.
func CloseFD(int) error {
	return errors.ErrUnsupported
}

// ListenerFD returns the descriptor backing l.
func ListenerFD(*net.TCPListener) (int, error) {
	return -1, errors.ErrUnsupported
}

// Accept takes one pending connection from the listening descriptor.
func Accept(int) (int, string, error) {
	return -1, "", errors.ErrUnsupported
}

// IsWouldBlock reports whether err means the operation found nothing ready.
func IsWouldBlock(error) bool {
	return false
}
