//go:build linux

package reactor

import (
	"errors"

	"golang.org/x/sys/unix"
)

const maxEvents = 128

// epoller is the Linux readiness primitive. Interest is level-triggered on
// EPOLLIN; hangups and errors are reported as readiness too, so the
// callback observes them on its next read.
type epoller struct {
	epfd   int
	events []unix.EpollEvent
}

func newPoller() (poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epoller{epfd: fd, events: make([]unix.EpollEvent, maxEvents)}, nil
}

func (p *epoller) add(fd int) error {
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (p *epoller) del(fd int) error {
	// Pre-2.6.9 kernels require a non-nil event for DEL.
	var ev unix.EpollEvent
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, &ev)
}

func (p *epoller) wait(ready []int) ([]int, error) {
	n, err := unix.EpollWait(p.epfd, p.events, -1)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return ready, nil
		}
		return ready, err
	}
	for i := 0; i < n; i++ {
		ready = append(ready, int(p.events[i].Fd))
	}
	return ready, nil
}

func (p *epoller) close() error {
	return unix.Close(p.epfd)
}
