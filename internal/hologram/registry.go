package hologram

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps display names to displays.
//
// Registering an existing name replaces the entry and hands the displaced
// display back to the caller; the registry never destroys it. Removal calls
// the finalizer (if set) so the removed display is torn down off the
// caller's goroutine.
//
// All public methods are thread-safe. Iteration order is registration
// order; a replaced entry keeps the position of the name it replaced.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registryEntry
	seq     uint64

	// finalize is called with displays removed by Remove.
	finalize func(*Display)
}

type registryEntry struct {
	display *Display
	seq     uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registryEntry)}
}

// SetFinalizer sets the function that tears down displays removed with Remove.
// The finalizer must not block the caller.
func (r *Registry) SetFinalizer(fn func(*Display)) {
	r.mu.Lock()
	r.finalize = fn
	r.mu.Unlock()
}

// Register stores the display under its name and returns the display it
// replaced, or nil.
func (r *Registry) Register(d *Display) (*Display, error) {
	if d == nil || d.Name() == "" {
		return nil, fmt.Errorf("%w: temporary displays cannot be registered", ErrInvalidName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.entries[d.Name()]
	entry := registryEntry{display: d, seq: prev.seq}
	if !ok {
		r.seq++
		entry.seq = r.seq
	}
	r.entries[d.Name()] = entry

	if !ok || prev.display == d {
		return nil, nil
	}
	return prev.display, nil
}

// Get returns the display registered under name, or nil.
func (r *Registry) Get(name string) *Display {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[name].display
}

// Contains reports whether a display is registered under name.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Remove unregisters the display and schedules its destruction.
// It returns the removed display, or nil when the name is unknown.
func (r *Registry) Remove(name string) *Display {
	r.mu.Lock()
	entry, ok := r.entries[name]
	if ok {
		delete(r.entries, name)
	}
	finalize := r.finalize
	r.mu.Unlock()

	if !ok {
		return nil
	}
	if finalize != nil {
		finalize(entry.display)
	}
	return entry.display
}

// List returns a snapshot of every registered display in registration order.
func (r *Registry) List() []*Display {
	r.mu.RLock()
	entries := make([]registryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	return sortEntries(entries)
}

func ordered(m map[string]registryEntry) []*Display {
	entries := make([]registryEntry, 0, len(m))
	for _, e := range m {
		entries = append(entries, e)
	}
	return sortEntries(entries)
}

func sortEntries(entries []registryEntry) []*Display {
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]*Display, len(entries))
	for i, e := range entries {
		out[i] = e.display
	}
	return out
}

// Names returns every registered name in registration order.
func (r *Registry) Names() []string {
	list := r.List()
	names := make([]string, len(list))
	for i, d := range list {
		names[i] = d.Name()
	}
	return names
}

// Len returns the number of registered displays.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Clear empties the registry and returns what it held, in registration
// order. The finalizer is not called.
func (r *Registry) Clear() []*Display {
	r.mu.Lock()
	old := r.entries
	r.entries = make(map[string]registryEntry)
	r.mu.Unlock()

	return ordered(old)
}
