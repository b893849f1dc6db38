package render

import (
	"sync"
	"time"
)

// Debouncer delays a callback until Trigger has not been called for the
// configured wait. It is Idle until the first Trigger, Pending while the
// timer is armed, and returns to Idle when the callback fires.
type Debouncer struct {
	wait time.Duration
	fn   func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// NewDebouncer creates a Debouncer that runs fn after wait of quiescence.
func NewDebouncer(wait time.Duration, fn func()) *Debouncer {
	return &Debouncer{wait: wait, fn: fn}
}

// Trigger arms the timer, or restarts it if it is already armed.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.wait, func() { d.fire(gen) })
}

// fire runs the callback unless the timer was re-armed or cancelled after
// this generation was scheduled.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Flush runs a pending call immediately. It reports whether a call ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.timer == nil {
		d.mu.Unlock()
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	d.mu.Unlock()

	d.fn()
	return true
}

// Stop cancels any pending call. Later Triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
