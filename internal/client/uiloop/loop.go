// Package uiloop provides the single UI-owning execution context of the
// client. Anything that mutates what the user sees (session observers,
// command availability snapshots, printed results of background requests)
// is dispatched here, so a network completion always happens-before the UI
// mutation it causes and observers never race each other.
package uiloop

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned by Call when the loop has been stopped.
var ErrStopped = errors.New("ui loop stopped")

// Dispatcher schedules fn on the UI-owning execution context.
type Dispatcher interface {
	Dispatch(fn func())
}

// Inline runs fn immediately on the caller's goroutine. It is the
// dispatcher for headless use and tests where the caller already is the
// only goroutine touching UI state.
type Inline struct{}

func (Inline) Dispatch(fn func()) { fn() }

// Loop is an unbounded FIFO of functions drained by Run. Dispatch never
// blocks, so background goroutines cannot stall on a busy UI.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped bool
	done    chan struct{}
}

var _ Dispatcher = (*Loop)(nil)

func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Dispatch enqueues fn. Functions dispatched after Stop are dropped.
func (l *Loop) Dispatch(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Call dispatches fn and waits for it to finish running on the loop.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	l.Dispatch(func() {
		defer close(finished)
		fn()
	})

	select {
	case <-finished:
		return nil
	case <-l.done:
		// fn may have been queued before the stop; let it report.
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop makes Run return after the function currently executing. Pending
// functions are discarded. Safe to call more than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	l.queue = nil
	close(l.done)
}

// Run drains the queue on the calling goroutine until ctx is done or Stop
// is called. It must not be called concurrently; after a ctx cancellation
// it may be called again and resumes with the functions left unexecuted.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.mu.Lock()
		if l.stopped {
			l.mu.Unlock()
			return nil
		}
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for i, fn := range batch {
			if l.isStopped() {
				return nil
			}
			if ctx.Err() != nil {
				l.requeue(batch[i:])
				return ctx.Err()
			}
			fn()
		}

		if len(batch) > 0 {
			continue
		}

		select {
		case <-l.wake:
		case <-l.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Loop) isStopped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopped
}

// requeue puts unexecuted functions back at the head of the queue so a
// later Run keeps FIFO order.
func (l *Loop) requeue(fns []func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.queue = append(append([]func(){}, fns...), l.queue...)
}
