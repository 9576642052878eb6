// Package workerpool runs tasks on a fixed set of goroutines fed by a
// bounded queue.
//
// Submit blocks while the queue is full. That blocking is the pool's only
// backpressure: callers that must not block should not share a pool with
// slow producers.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/marmos91/sigscan/internal/logger"
)

// ErrPoolClosed is returned by Submit after Shutdown or Stop.
var ErrPoolClosed = errors.New("worker pool closed")

// Task is a unit of work. ctx is cancelled when the pool is stopped.
type Task func(ctx context.Context)

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	Workers   int   `json:"workers"`
	QueueSize int   `json:"queue_size"`
	Queued    int   `json:"queued"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Panicked  int64 `json:"panicked"`
}

// Pool is a fixed-size worker pool. Create it with New; it is ready to
// accept tasks immediately.
type Pool struct {
	workers   int
	queueSize int
	tasks     chan Task

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	closed   bool
	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup

	active    atomic.Int64
	completed atomic.Int64
	panicked  atomic.Int64
}

// New starts workers goroutines reading from a queue of queueSize slots.
// A queueSize of zero makes Submit hand tasks directly to an idle worker.
func New(workers, queueSize int) (*Pool, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", workers)
	}
	if queueSize < 0 {
		return nil, fmt.Errorf("queue size must not be negative, got %d", queueSize)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		workers:   workers,
		queueSize: queueSize,
		tasks:     make(chan Task, queueSize),
		ctx:       ctx,
		cancel:    cancel,
		quit:      make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	logger.Debug("Worker pool started", logger.Workers(workers), logger.QueueSize(queueSize))
	return p, nil
}

// Submit enqueues task, blocking while the queue is full. It returns
// ErrPoolClosed if the pool is shut down before the task is accepted, or
// ctx.Err() if ctx ends first.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	if task == nil {
		return errors.New("nil task")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	case <-p.quit:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting tasks and waits for queued and running tasks to
// finish. If ctx ends first, Shutdown returns ctx.Err() and the remaining
// tasks keep running in the background.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.closeIntake()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Debug("Worker pool drained", "completed", p.completed.Load())
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop stops accepting tasks and cancels the context passed to running
// tasks. It does not wait.
func (p *Pool) Stop() {
	p.closeIntake()
	p.cancel()
}

// Stats returns a snapshot of pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.workers,
		QueueSize: p.queueSize,
		Queued:    len(p.tasks),
		Active:    p.active.Load(),
		Completed: p.completed.Load(),
		Panicked:  p.panicked.Load(),
	}
}

// closeIntake unblocks pending Submits, then closes the queue once no
// Submit holds the read lock. Safe to call more than once.
func (p *Pool) closeIntake() {
	p.quitOnce.Do(func() {
		close(p.quit)

		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
	})
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(id, task)
	}
}

// run executes one task, containing any panic so the worker survives.
func (p *Pool) run(id int, task Task) {
	p.active.Add(1)
	defer func() {
		p.active.Add(-1)
		if r := recover(); r != nil {
			p.panicked.Add(1)
			logger.Error("Worker task panicked",
				"worker", id,
				"panic", r,
				"stack", string(debug.Stack()))
			return
		}
		p.completed.Add(1)
	}()

	task(p.ctx)
}
