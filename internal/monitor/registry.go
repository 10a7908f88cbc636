package monitor

import (
	"sync"
	"time"
)

// Registry maps host identifiers to their Windows. Windows are created on
// first sight and live for the process lifetime — there is no eviction, since
// history inside each Window is already bounded.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	windows    map[string]*Window
	seen       []string // identifiers in first-seen order
	staleAfter time.Duration
	now        func() time.Time // injectable; propagated to new Windows
}

// NewRegistry creates an empty Registry whose Windows report stale after the
// given silence duration (DefaultStaleAfter when zero).
func NewRegistry(staleAfter time.Duration) *Registry {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Registry{
		windows:    make(map[string]*Window),
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Ensure returns the Window for name, creating it if this is the first
// observation. A non-empty address updates the existing Window's label in
// place; an empty one leaves it untouched.
func (r *Registry) Ensure(name, address string) *Window {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.windows[name]; ok {
		w.SetAddress(address)
		return w
	}
	w := NewWindow(name, address, r.staleAfter)
	w.now = r.now
	r.windows[name] = w
	r.seen = append(r.seen, name)
	return w
}

// Get returns the Window for name, if one exists.
func (r *Registry) Get(name string) (*Window, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.windows[name]
	return w, ok
}

// All returns a copy of the identifier → Window mapping.
func (r *Registry) All() map[string]*Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Window, len(r.windows))
	for name, w := range r.windows {
		out[name] = w
	}
	return out
}

// Len returns the number of Windows held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.windows)
}

// OrderedNames returns the identifiers of all existing Windows: first those
// present in preferred, in preferred order, then the rest in first-seen order.
// Preferred identifiers without a Window are skipped — a configured target
// that has never produced data has nothing to show.
func (r *Registry) OrderedNames(preferred []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.windows))
	listed := make(map[string]bool, len(preferred))
	for _, name := range preferred {
		if listed[name] {
			continue
		}
		listed[name] = true
		if _, ok := r.windows[name]; ok {
			out = append(out, name)
		}
	}
	for _, name := range r.seen {
		if !listed[name] {
			out = append(out, name)
		}
	}
	return out
}
