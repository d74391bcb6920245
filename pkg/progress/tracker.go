// Package progress reports bytes processed by a running operation.
package progress

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Tracker counts processed bytes and periodically prints a status line.  A
// nil *Tracker ignores every call, so the core can report unconditionally.
type Tracker struct {
	out      io.Writer
	label    string
	interval time.Duration

	processed atomic.Int64
	total     atomic.Int64

	mu      sync.Mutex
	running bool
	done    chan struct{}
	stopped chan struct{}
}

// New returns a Tracker that prints to out every interval.
func New(out io.Writer, label string, interval time.Duration) *Tracker {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Tracker{out: out, label: label, interval: interval}
}

// Start begins periodic reporting.  total may be 0 when unknown and can be
// raised later with Grow.
func (t *Tracker) Start(total int64) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return
	}
	t.processed.Store(0)
	t.total.Store(total)
	t.done = make(chan struct{})
	t.stopped = make(chan struct{})
	t.running = true
	go t.report()
}

// Grow adds n to the expected total.
func (t *Tracker) Grow(n int64) {
	if t == nil || n <= 0 {
		return
	}
	t.total.Add(n)
}

// Add records n processed bytes.
func (t *Tracker) Add(n int64) {
	if t == nil || n <= 0 {
		return
	}
	t.processed.Add(n)
}

// Processed returns the bytes recorded so far.
func (t *Tracker) Processed() int64 {
	if t == nil {
		return 0
	}
	return t.processed.Load()
}

// Stop ends reporting and prints a final summary line.
func (t *Tracker) Stop() {
	if t == nil {
		return
	}
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	close(t.done)
	stopped := t.stopped
	t.mu.Unlock()
	<-stopped
}

func (t *Tracker) report() {
	defer close(t.stopped)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	var prevBytes int64
	startTime := time.Now()
	lastOutput := time.Now()

	for {
		select {
		case <-ticker.C:
			current := t.processed.Load()
			rate := float64(current-prevBytes) / t.interval.Seconds()
			prevBytes = current

			if time.Since(lastOutput) < time.Second {
				continue
			}
			lastOutput = time.Now()

			total := t.total.Load()
			if total <= 0 {
				fmt.Fprintf(t.out, "%s: %s | %s\n", t.label, FormatSize(current), formatRate(rate))
				continue
			}
			eta := "calculating..."
			if rate > 0 && total > current {
				eta = formatDuration(time.Duration(float64(total-current) / rate * float64(time.Second)))
			}
			fmt.Fprintf(t.out, "%s: %s of %s (%.1f%%) | %s | ETA: %s\n",
				t.label, FormatSize(current), FormatSize(total),
				float64(current)/float64(total)*100, formatRate(rate), eta)
		case <-t.done:
			elapsed := time.Since(startTime).Seconds()
			if elapsed < 0.001 {
				elapsed = 0.001
			}
			current := t.processed.Load()
			fmt.Fprintf(t.out, "%s: completed %s in %.1f seconds (avg %s)\n",
				t.label, FormatSize(current), elapsed, formatRate(float64(current)/elapsed))
			return
		}
	}
}

// Writer counts bytes written through it.
type Writer struct {
	W io.Writer
	T *Tracker
}

func (pw *Writer) Write(p []byte) (n int, err error) {
	n, err = pw.W.Write(p)
	if n > 0 {
		pw.T.Add(int64(n))
	}
	return
}

// FormatSize returns a human-readable byte count.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatRate(bytesPerSec float64) string {
	return FormatSize(int64(bytesPerSec)) + "/s"
}

func formatDuration(d time.Duration) string {
	switch s := d.Seconds(); {
	case s < 60:
		return fmt.Sprintf("%.0f seconds", s)
	case s < 3600:
		return fmt.Sprintf("%.1f minutes", s/60)
	default:
		return fmt.Sprintf("%.1f hours", s/3600)
	}
}
