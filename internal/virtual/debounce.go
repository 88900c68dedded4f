package virtual

import (
	"sync"
	"time"
)

// DefaultResizeDebounce collapses bursts of resize notifications into one remeasure.
const DefaultResizeDebounce = 200 * time.Millisecond

// Debouncer runs fn once after delay has passed without another Trigger.
// A non-positive delay runs fn synchronously on every Trigger.
type Debouncer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewDebouncer creates a debouncer for fn.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger schedules fn, cancelling any call still waiting.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	if d.delay <= 0 {
		d.mu.Unlock()
		d.fn()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
	d.mu.Unlock()
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// Stop cancels a pending call and makes later Triggers no-ops.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
