// Package render keeps a panel's rendered HTML in sync with its options.
//
// The first render happens synchronously when the Panel is created. Every
// later update notification schedules a recompute through a Debouncer, since
// dashboard variables can change the output even when the options did not.
// The stored HTML is only replaced, and OnChange only called, when the
// recomputed output differs.
package render

import (
	"log"
	"sync"
	"time"

	"github.com/ziadkadry99/textpanel/internal/content"
)

// DefaultWait is the quiescence window between the last update and the
// recompute.
const DefaultWait = 150 * time.Millisecond

// Processor renders panel options to safe HTML.
type Processor interface {
	Process(opts content.Options) (string, error)
}

// Source returns the latest options at the time a recompute runs.
type Source func() content.Options

// Option configures a Panel.
type Option func(*Panel)

// WithWait overrides the debounce window.
func WithWait(wait time.Duration) Option {
	return func(p *Panel) { p.wait = wait }
}

// WithOnChange registers a callback invoked with the new HTML and its version
// after a recompute replaced the stored value. Callbacks run in version order.
func WithOnChange(fn func(html string, version uint64)) Option {
	return func(p *Panel) { p.onChange = fn }
}

// Panel holds the last computed HTML for one set of options.
type Panel struct {
	proc     Processor
	source   Source
	wait     time.Duration
	onChange func(html string, version uint64)

	debouncer *Debouncer
	runMu     sync.Mutex

	mu         sync.RWMutex
	html       string
	version    uint64
	err        error
	recomputes int
}

// New creates a Panel and renders its initial HTML before returning. An error
// from the initial render is returned to the caller.
func New(proc Processor, source Source, opts ...Option) (*Panel, error) {
	p := &Panel{
		proc:   proc,
		source: source,
		wait:   DefaultWait,
	}
	for _, opt := range opts {
		opt(p)
	}

	html, err := proc.Process(source())
	if err != nil {
		return nil, err
	}
	p.html = html
	p.version = 1
	p.debouncer = NewDebouncer(p.wait, p.recompute)
	return p, nil
}

// Update notifies the panel that something it depends on may have changed.
func (p *Panel) Update() {
	p.debouncer.Trigger()
}

// Flush runs a pending recompute immediately.
func (p *Panel) Flush() bool {
	return p.debouncer.Flush()
}

// Pending reports whether a recompute is scheduled.
func (p *Panel) Pending() bool {
	return p.debouncer.Pending()
}

// HTML returns the last computed HTML.
func (p *Panel) HTML() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.html
}

// Snapshot returns the last computed HTML with its version. The version
// starts at 1 and increases every time the stored HTML is replaced.
func (p *Panel) Snapshot() (string, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.html, p.version
}

// Err returns the error from the most recent recompute, if it failed.
func (p *Panel) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

// Recomputes returns how many debounced recomputes have run.
func (p *Panel) Recomputes() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.recomputes
}

// Close cancels any pending recompute.
func (p *Panel) Close() {
	p.debouncer.Stop()
}

func (p *Panel) recompute() {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	html, err := p.proc.Process(p.source())

	p.mu.Lock()
	p.recomputes++
	if err != nil {
		p.err = err
		p.mu.Unlock()
		log.Printf("render: recompute failed, keeping previous html: %v", err)
		return
	}
	p.err = nil
	if html == p.html {
		p.mu.Unlock()
		return
	}
	p.html = html
	p.version++
	version := p.version
	onChange := p.onChange
	p.mu.Unlock()

	// runMu is still held, so callbacks never overtake each other.
	if onChange != nil {
		onChange(html, version)
	}
}
