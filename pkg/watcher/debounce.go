package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDuration collapses the burst of events a single
// database write produces into one notification.
const DefaultDebounceDuration = 250 * time.Millisecond

// Debouncer coalesces rapid triggers: the callback fires once per quiet
// period, after the last trigger.
type Debouncer struct {
	duration time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(d time.Duration) *Debouncer {
	if d <= 0 {
		d = DefaultDebounceDuration
	}
	return &Debouncer{duration: d}
}

// Duration returns the quiet period.
func (d *Debouncer) Duration() time.Duration { return d.duration }

// Trigger schedules fn after the quiet period, resetting the clock if a
// trigger is already pending. The last fn wins.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, fn)
}

// Cancel drops any pending trigger.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
