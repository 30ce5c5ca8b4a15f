package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDuration is how long the debouncer waits after the last
// trigger before firing. Cluster files are rewritten by a pipeline in bursts
// of writes; 200ms is long enough to coalesce a burst and short enough that
// a reload still feels immediate.
const DefaultDebounceDuration = 200 * time.Millisecond

// Debouncer coalesces rapid triggers into a single callback invocation.
// Each Trigger resets the timer; the callback of the last Trigger wins.
type Debouncer struct {
	duration time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given duration. A non-positive
// duration falls back to DefaultDebounceDuration.
func NewDebouncer(d time.Duration) *Debouncer {
	if d <= 0 {
		d = DefaultDebounceDuration
	}
	return &Debouncer{duration: d}
}

// Duration returns the configured debounce duration.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}

// Trigger schedules fn to run after the debounce duration, replacing any
// previously scheduled callback.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, fn)
}

// Cancel stops any pending callback.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
