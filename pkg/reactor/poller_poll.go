//go:build unix && !linux

package reactor

import (
	"errors"
	"sync"

	"golang.org/x/sys/unix"
)

// pollPoller is the portable Unix readiness primitive built on poll(2).
// Each wait snapshots the descriptor set; the loop wakes itself when the
// set changes while it is blocked.
type pollPoller struct {
	mu   sync.Mutex
	fds  map[int]struct{}
	pfds []unix.PollFd
}

func newPoller() (poller, error) {
	return &pollPoller{fds: make(map[int]struct{})}, nil
}

func (p *pollPoller) add(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fds[fd] = struct{}{}
	return nil
}

func (p *pollPoller) del(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.fds, fd)
	return nil
}

func (p *pollPoller) wait(ready []int) ([]int, error) {
	p.mu.Lock()
	p.pfds = p.pfds[:0]
	for fd := range p.fds {
		p.pfds = append(p.pfds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
	}
	pfds := p.pfds
	p.mu.Unlock()

	_, err := unix.Poll(pfds, -1)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return ready, nil
		}
		return ready, err
	}
	for _, pfd := range pfds {
		if pfd.Revents != 0 {
			ready = append(ready, int(pfd.Fd))
		}
	}
	return ready, nil
}

func (p *pollPoller) close() error {
	return nil
}
