package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrWizardNotFound = errors.New("wizard not found")

// Registry keeps in-progress wizards in memory between requests. A wizard belongs to the user
// that opened it and disappears after submission, an explicit discard, or idleTTL of
// inactivity.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	opts    Options
	idleTTL time.Duration
	now     func() time.Time
}

type registryEntry struct {
	owner   string
	engine  *Engine
	touched time.Time
}

func NewRegistry(opts Options, idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &Registry{
		entries: map[string]*registryEntry{},
		opts:    opts,
		idleTTL: idleTTL,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *Registry) Create(owner string) (string, *Engine) {
	id := uuid.NewString()
	e := New(r.opts)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &registryEntry{owner: owner, engine: e, touched: r.now()}
	return id, e
}

// Get returns the wizard if owner opened it. Other users get ErrWizardNotFound.
func (r *Registry) Get(id, owner string) (*Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok || entry.owner != owner {
		return nil, ErrWizardNotFound
	}
	entry.touched = r.now()
	return entry.engine, nil
}

func (r *Registry) Discard(id, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok || entry.owner != owner {
		return ErrWizardNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops idle wizards and submitted ones and reports how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.idleTTL)
	removed := 0
	for id, entry := range r.entries {
		if entry.touched.Before(cutoff) || entry.engine.Submitted() {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Sweep()
		}
	}
}
