package panels

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/textpanel/internal/content"
	"github.com/ziadkadry99/textpanel/internal/render"
)

// livePanel pairs the current options of a panel with its render trigger.
type livePanel struct {
	mu     sync.RWMutex
	opts   content.Options
	render *render.Panel
}

func (l *livePanel) options() content.Options {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.opts
}

// Registry keeps one render trigger per stored panel and pushes changed HTML
// to the Hub.
type Registry struct {
	store *Store
	proc  render.Processor
	hub   *Hub
	wait  time.Duration

	defaultMode content.Mode

	locks panelLocks

	mu   sync.RWMutex
	live map[string]*livePanel
}

// panelLocks hands out one mutex per panel id so a store write and the
// matching live update happen as one step.
type panelLocks struct {
	mu    sync.Mutex
	locks map[string]*panelLock
}

type panelLock struct {
	sync.Mutex
	refs int
}

// lock blocks until id is free and returns the matching unlock.
func (l *panelLocks) lock(id string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*panelLock)
	}
	pl, ok := l.locks[id]
	if !ok {
		pl = &panelLock{}
		l.locks[id] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.Lock()
	return func() {
		pl.Unlock()
		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

// NewRegistry creates a Registry. wait is the debounce window; zero selects
// render.DefaultWait.
func NewRegistry(store *Store, proc render.Processor, hub *Hub, wait time.Duration) *Registry {
	if wait <= 0 {
		wait = render.DefaultWait
	}
	return &Registry{
		store: store,
		proc:  proc,
		hub:   hub,
		wait:  wait,
		live:  make(map[string]*livePanel),

		defaultMode: content.ModeMarkdown,
	}
}

// SetDefaultMode sets the mode used when a new panel does not name one.
func (r *Registry) SetDefaultMode(m content.Mode) {
	if m.Valid() {
		r.defaultMode = m
	}
}

// DefaultOptions returns the options of a panel created without any.
func (r *Registry) DefaultOptions() content.Options {
	opts := content.DefaultOptions()
	opts.Mode = r.defaultMode
	return opts
}

// Store returns the underlying panel store.
func (r *Registry) Store() *Store { return r.store }

// Hub returns the websocket hub.
func (r *Registry) Hub() *Hub { return r.hub }

// Load starts a render trigger for every stored panel. Panels whose initial
// render fails are logged and skipped. Returns the number of panels loaded.
func (r *Registry) Load(ctx context.Context) (int, error) {
	list, err := r.store.List(ctx)
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, p := range list {
		if _, err := r.open(p.ID, p.Options); err != nil {
			log.Printf("panels: loading %s: %v", p.ID, err)
			continue
		}
		loaded++
	}
	return loaded, nil
}

// Create renders and stores a new panel.
func (r *Registry) Create(ctx context.Context, title string, opts content.Options) (*Panel, error) {
	id := uuid.New().String()
	if _, err := r.open(id, opts); err != nil {
		return nil, fmt.Errorf("rendering panel: %w", err)
	}

	p, err := r.store.Create(ctx, Panel{ID: id, Title: title, Options: opts})
	if err != nil {
		r.close(id)
		return nil, err
	}
	return p, nil
}

// SetOptions stores new options and schedules a debounced re-render.
// Returns nil if the panel does not exist.
func (r *Registry) SetOptions(ctx context.Context, id string, opts content.Options) (*Panel, error) {
	unlock := r.locks.lock(id)
	defer unlock()

	p, err := r.store.UpdateOptions(ctx, id, opts)
	if err != nil || p == nil {
		return p, err
	}

	r.mu.RLock()
	lp, ok := r.live[id]
	r.mu.RUnlock()
	if !ok {
		if _, err := r.open(id, opts); err != nil {
			return nil, fmt.Errorf("rendering panel: %w", err)
		}
		return p, nil
	}

	lp.mu.Lock()
	lp.opts = opts
	lp.mu.Unlock()
	lp.render.Update()
	return p, nil
}

// SetTitle renames a panel. Returns nil if the panel does not exist.
func (r *Registry) SetTitle(ctx context.Context, id, title string) (*Panel, error) {
	unlock := r.locks.lock(id)
	defer unlock()
	return r.store.UpdateTitle(ctx, id, title)
}

// Delete removes a panel and disconnects its viewers.
func (r *Registry) Delete(ctx context.Context, id string) (bool, error) {
	unlock := r.locks.lock(id)
	defer unlock()

	ok, err := r.store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	r.close(id)
	if ok {
		r.hub.Deleted(id)
	}
	return ok, nil
}

// Rendered returns the current HTML of a live panel and the error of its
// last recompute.
func (r *Registry) Rendered(id string) (html string, lastErr error, ok bool) {
	r.mu.RLock()
	lp, ok := r.live[id]
	r.mu.RUnlock()
	if !ok {
		return "", nil, false
	}
	return lp.render.HTML(), lp.render.Err(), true
}

// Trigger returns the render trigger of a live panel. Live sockets read
// their initial snapshot from it.
func (r *Registry) Trigger(id string) (*render.Panel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lp, ok := r.live[id]
	if !ok {
		return nil, false
	}
	return lp.render, true
}

// UpdateAll schedules a re-render of every live panel. It is called when
// dashboard variables change.
func (r *Registry) UpdateAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, lp := range r.live {
		lp.render.Update()
	}
}

// Close stops every render trigger.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, lp := range r.live {
		lp.render.Close()
		delete(r.live, id)
	}
}

func (r *Registry) open(id string, opts content.Options) (*livePanel, error) {
	lp := &livePanel{opts: opts}
	rp, err := render.New(r.proc, lp.options,
		render.WithWait(r.wait),
		render.WithOnChange(func(html string, version uint64) { r.hub.Broadcast(id, html, version) }),
	)
	if err != nil {
		return nil, err
	}
	lp.render = rp

	r.mu.Lock()
	if old, ok := r.live[id]; ok {
		old.render.Close()
	}
	r.live[id] = lp
	r.mu.Unlock()
	return lp, nil
}

func (r *Registry) close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lp, ok := r.live[id]; ok {
		lp.render.Close()
		delete(r.live, id)
	}
}
