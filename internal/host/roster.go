package host

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-holograms/internal/hologram"
)

var (
	_ hologram.ObserverRoster   = (*Roster)(nil)
	_ hologram.PermissionOracle = (*Roster)(nil)
	_ hologram.RangeOracle      = (*Roster)(nil)
)

// Roster is the set of connected observers.
//
// As a PermissionOracle and RangeOracle it evaluates against the most recent
// presence update for the observer, which may be newer than the snapshot the
// core is holding.
type Roster struct {
	mu        sync.RWMutex
	observers map[uuid.UUID]hologram.Observer

	perms  hologram.PermissionCheck
	ranges hologram.DistanceRange
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{observers: make(map[uuid.UUID]hologram.Observer)}
}

// Upsert adds or refreshes an observer and returns its previous state.
// existed is false for a newly connected observer.
func (r *Roster) Upsert(o hologram.Observer) (prev hologram.Observer, existed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, existed = r.observers[o.ID]
	r.observers[o.ID] = o
	return prev, existed
}

// Remove drops an observer, returning its last known state.
func (r *Roster) Remove(id uuid.UUID) (hologram.Observer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.observers[id]
	delete(r.observers, id)
	return o, ok
}

// Get returns an observer by id.
func (r *Roster) Get(id uuid.UUID) (hologram.Observer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.observers[id]
	return o, ok
}

// Len returns the number of connected observers.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.observers)
}

// CurrentObservers returns a snapshot ordered by name, then id.
func (r *Roster) CurrentObservers() []hologram.Observer {
	r.mu.RLock()
	out := make([]hologram.Observer, 0, len(r.observers))
	for _, o := range r.observers {
		out = append(out, o)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// CanShow applies the display's permission to the observer's latest state.
// Observers no longer in the roster are never shown anything.
func (r *Roster) CanShow(d *hologram.Display, o hologram.Observer) bool {
	cur, ok := r.Get(o.ID)
	return ok && r.perms.CanShow(d, cur)
}

// IsInRange applies the display's range to the observer's latest position.
// Observers no longer in the roster are out of range.
func (r *Roster) IsInRange(d *hologram.Display, o hologram.Observer) bool {
	cur, ok := r.Get(o.ID)
	return ok && r.ranges.IsInRange(d, cur)
}
