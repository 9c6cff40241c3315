// Package pool runs units of work with bounded concurrency.
//
// A Pool owns a context that every unit receives. Drain stops accepting work
// and waits for in-flight units up to a hard cap, cancelling them when the cap
// expires. Shutdown cancels immediately.
//
//	p, err := pool.New(ctx, 4)
//	if err != nil {
//	    return err
//	}
//	_ = p.Submit(func(ctx context.Context) { work(ctx) })
//	err = p.Drain(30 * time.Second)
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

var (
	// ErrClosed is returned by Submit once Drain or Shutdown has started.
	ErrClosed = errors.New("pool closed for submissions")

	// ErrDrainTimeout is returned by Drain when in-flight units outlived the cap.
	ErrDrainTimeout = errors.New("pool drain timed out")
)

// Unit is one piece of work. It must return promptly once ctx is done.
type Unit func(ctx context.Context)

// Pool is safe for concurrent use.
type Pool struct {
	limit  int
	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	pending int
	idle    chan struct{}

	running atomic.Int64
	peak    atomic.Int64
}

// New creates a Pool running at most limit units at once. Units receive a
// context derived from parent.
func New(parent context.Context, limit int) (*Pool, error) {
	if limit < 1 {
		return nil, fmt.Errorf("pool limit must be at least 1, got %d", limit)
	}

	ctx, cancel := context.WithCancel(parent)
	idle := make(chan struct{})
	close(idle)

	return &Pool{
		limit:  limit,
		sem:    semaphore.NewWeighted(int64(limit)),
		ctx:    ctx,
		cancel: cancel,
		idle:   idle,
	}, nil
}

// Submit schedules u and returns without waiting for a free slot. Units queue
// in no particular order. When the pool context is cancelled before u gets a
// slot, u still runs, with the cancelled context, so it can record its own
// cancellation.
func (p *Pool) Submit(u Unit) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.pending++
	if p.pending == 1 {
		p.idle = make(chan struct{})
	}
	p.mu.Unlock()

	go func() {
		defer p.done()

		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			u(p.ctx)
			return
		}
		defer p.sem.Release(1)

		n := p.running.Add(1)
		defer p.running.Add(-1)
		for {
			peak := p.peak.Load()
			if n <= peak || p.peak.CompareAndSwap(peak, n) {
				break
			}
		}

		u(p.ctx)
	}()
	return nil
}

func (p *Pool) done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending--
	if p.pending == 0 {
		close(p.idle)
	}
}

// Wait blocks until no unit is queued or running, or ctx is done.
func (p *Pool) Wait(ctx context.Context) error {
	p.mu.Lock()
	idle := p.idle
	p.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain closes the pool for submissions and waits up to timeout for queued and
// running units. On expiry the pool context is cancelled and Drain waits up to
// timeout once more for units to unwind before returning ErrDrainTimeout.
func (p *Pool) Drain(timeout time.Duration) error {
	p.close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := p.Wait(ctx); err == nil {
		return nil
	}

	p.cancel()

	grace, cancelGrace := context.WithTimeout(context.Background(), timeout)
	defer cancelGrace()
	_ = p.Wait(grace)

	return ErrDrainTimeout
}

// Cancel closes the pool and cancels every unit without waiting for them.
func (p *Pool) Cancel() {
	p.close()
	p.cancel()
}

// Shutdown cancels every unit and waits for them to return.
func (p *Pool) Shutdown() {
	p.Cancel()
	_ = p.Wait(context.Background())
}

// Context returns the context handed to units.
func (p *Pool) Context() context.Context {
	return p.ctx
}

// Limit returns the concurrency bound.
func (p *Pool) Limit() int {
	return p.limit
}

// Running returns the number of units currently holding a slot.
func (p *Pool) Running() int {
	return int(p.running.Load())
}

// Peak returns the highest number of units that held a slot at the same time.
func (p *Pool) Peak() int {
	return int(p.peak.Load())
}

// Closed reports whether the pool stopped accepting submissions.
func (p *Pool) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Pool) close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}
