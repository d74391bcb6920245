package opctl

import (
	"context"
	"sync/atomic"
)

// Task is one background operation started by a Coordinator.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Cancel requests cancellation.  It does not wait for the task to stop.
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed when the task function has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task returns and reports its error.
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

// Coordinator runs at most one operation at a time.  Starting a new one
// cancels whichever operation was running before.  Separate coordinators are
// independent and may run in parallel.
type Coordinator struct {
	current atomic.Pointer[Task]
}

// Start runs fn in a new goroutine under a context derived from parent.  A
// previously started task that is still registered is cancelled.
func (c *Coordinator) Start(parent context.Context, fn func(ctx context.Context) error) *Task {
	ctx, cancel := context.WithCancel(parent)
	t := &Task{cancel: cancel, done: make(chan struct{})}

	if prev := c.current.Swap(t); prev != nil {
		prev.cancel()
	}

	go func() {
		defer close(t.done)
		defer cancel()
		t.err = fn(ctx)
		c.current.CompareAndSwap(t, nil)
	}()
	return t
}

// Current returns the registered task, or nil when idle.
func (c *Coordinator) Current() *Task {
	return c.current.Load()
}

// Cancel cancels the registered task, if any.
func (c *Coordinator) Cancel() {
	if t := c.current.Load(); t != nil {
		t.cancel()
	}
}
