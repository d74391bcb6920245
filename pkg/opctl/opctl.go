// Package opctl provides cooperative cancellation and pause for long
// running operations.
//
// Cancellation is carried by context.Context.  Pausing is carried by a Gate.
// Both are only observed at checkpoints placed between atomic steps, so a
// paused or cancelled operation never stops in the middle of a symbol.
package opctl

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// CheckInterval is how many symbols a tight loop processes between two
// cancellation checks.
const CheckInterval = 1 << 12

// ErrCancelled is returned when an operation observed cancellation at a
// checkpoint.  It reports a neutral outcome, not a failure.
var ErrCancelled = errors.New("operation cancelled")

// Check returns ErrCancelled if ctx is done.  It never blocks.
func Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}

// Checkpoint checks for cancellation and then blocks while g is paused.  A
// nil Gate is never paused.
func Checkpoint(ctx context.Context, g *Gate) error {
	if err := Check(ctx); err != nil {
		return err
	}
	return g.Wait(ctx)
}

// Gate is a pause signal.  The zero value is an open (running) gate.
type Gate struct {
	mu     sync.Mutex
	paused bool
	resume chan struct{}
}

// NewGate returns an open Gate.
func NewGate() *Gate {
	return &Gate{}
}

// Pause makes subsequent checkpoints block until Resume is called.
func (g *Gate) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.paused {
		g.paused = true
		g.resume = make(chan struct{})
	}
}

// Resume releases every checkpoint blocked on g.
func (g *Gate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.paused {
		g.paused = false
		close(g.resume)
	}
}

// Paused reports whether the gate is currently closed.
func (g *Gate) Paused() bool {
	if g == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Wait blocks while g is paused.  It returns ErrCancelled if ctx is done
// while waiting.
func (g *Gate) Wait(ctx context.Context) error {
	if g == nil {
		return nil
	}
	for {
		g.mu.Lock()
		if !g.paused {
			g.mu.Unlock()
			return nil
		}
		resume := g.resume
		g.mu.Unlock()

		select {
		case <-resume:
		case <-ctx.Done():
			return Check(ctx)
		}
	}
}
