package store

import (
	"sync"
	"time"
)

// DefaultDebounceWindow is the quiet period the change-feed bridge waits for
// before triggering a reconciling refetch. A single user action (a drag
// reorder, say) produces a burst of row updates; refetching per event would
// flicker and waste round trips.
const DefaultDebounceWindow = 300 * time.Millisecond

// Debouncer coalesces bursts of triggers into a single invocation of fn,
// fired once the configured window elapses with no further triggers.
// Safe for concurrent use.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	fn     func()
	timer  *time.Timer
}

// NewDebouncer creates a debouncer that invokes fn after a quiet window.
// A non-positive window falls back to DefaultDebounceWindow.
func NewDebouncer(window time.Duration, fn func()) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{window: window, fn: fn}
}

// Trigger starts the window, or restarts it if already running.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fn)
}

// Cancel discards any pending invocation.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
