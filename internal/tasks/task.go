// Package tasks runs a unit of background work and exposes it as an owned handle.
// There is no process-wide registry: whoever starts a task holds the only reference to it.
package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a task
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Terminal reports whether no further transitions can happen
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCanceled
}

// eventBuffer bounds the events a slow consumer may lag behind.
// Events beyond it are dropped; Wait is the authoritative outcome.
const eventBuffer = 32

// Event is a progress notification
type Event struct {
	Status   Status    `json:"status"`
	Progress float64   `json:"progress"` // 0..1
	Message  string    `json:"message,omitempty"`
	Time     time.Time `json:"time"`
}

// Reporter publishes progress from inside the task body
type Reporter func(progress float64, message string)

// Func is the body of a task. It must honour ctx cancellation.
type Func[T any] func(ctx context.Context, report Reporter) (T, error)

// Task is a handle on work running in its own goroutine
type Task[T any] struct {
	ID        string
	StartedAt time.Time

	cancel context.CancelFunc
	events chan Event
	done   chan struct{}

	mu       sync.RWMutex
	status   Status
	progress float64
	result   T
	err      error
}

// Start launches fn and returns immediately
func Start[T any](ctx context.Context, fn Func[T]) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		cancel:    cancel,
		events:    make(chan Event, eventBuffer),
		done:      make(chan struct{}),
		status:    StatusRunning,
	}
	t.emit(StatusRunning, 0, "started")

	go t.run(ctx, fn)
	return t
}

func (t *Task[T]) run(ctx context.Context, fn Func[T]) {
	defer t.cancel()

	result, err := fn(ctx, func(progress float64, message string) {
		t.mu.Lock()
		if progress > t.progress {
			t.progress = min(progress, 1)
		}
		p := t.progress
		t.mu.Unlock()
		t.emit(StatusRunning, p, message)
	})

	status := StatusSucceeded
	switch {
	case err != nil && (errors.Is(err, context.Canceled) || ctx.Err() == context.Canceled):
		status = StatusCanceled
	case err != nil:
		status = StatusFailed
	}

	t.mu.Lock()
	t.status = status
	t.result = result
	t.err = err
	if status == StatusSucceeded {
		t.progress = 1
	}
	p := t.progress
	t.mu.Unlock()

	msg := ""
	if err != nil {
		msg = err.Error()
	}
	t.emit(status, p, msg)
	close(t.events)
	close(t.done)
}

// emit never blocks the task body
func (t *Task[T]) emit(status Status, progress float64, message string) {
	select {
	case t.events <- Event{Status: status, Progress: progress, Message: message, Time: time.Now()}:
	default:
	}
}

// Events streams progress. The channel is closed once the task finishes.
func (t *Task[T]) Events() <-chan Event {
	return t.events
}

// Done is closed once the task finishes
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Cancel asks the task to stop. It is safe to call more than once.
func (t *Task[T]) Cancel() {
	t.cancel()
}

// Status returns the current state and progress
func (t *Task[T]) Status() (Status, float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status, t.progress
}

// Wait blocks until the task finishes or ctx is done. Giving up on ctx does not cancel the task.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		t.mu.RLock()
		defer t.mu.RUnlock()
		return t.result, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
