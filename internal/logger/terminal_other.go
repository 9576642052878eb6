//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly && !windows

package logger

func isTerminal(uintptr) bool {
	return false
}
