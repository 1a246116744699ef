package hologram

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TemporaryLine describes a tracked ephemeral line.
type TemporaryLine struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	Location  Location  `json:"location"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TemporaryEvent is the payload broadcast when a temporary line is spawned
// or expires.
type TemporaryEvent struct {
	ID      uuid.UUID `json:"id"`
	Content string    `json:"content,omitempty"`
}

// stopper is the part of *time.Timer the manager needs.
type stopper interface {
	Stop() bool
}

// Ephemerals spawns unregistered single-line displays that are shown to
// every connected observer at once and destroy themselves after a fixed
// number of ticks.
//
// Expiry runs on the timer's goroutine. There is no early cancel; lines end
// by expiring or through DestroyAll.
type Ephemerals struct {
	backend  PresentationBackend
	roster   ObserverRoster
	tick     time.Duration
	metrics  Metrics
	events   EventSink
	logger   Logger
	now      func() time.Time
	schedule func(d time.Duration, fn func()) stopper

	mu      sync.Mutex
	entries map[uuid.UUID]*ephemeralEntry
	closed  bool
}

type ephemeralEntry struct {
	display   *Display
	content   string
	expiresAt time.Time
	timer     stopper
}

func newEphemerals(backend PresentationBackend, roster ObserverRoster, tick time.Duration) *Ephemerals {
	return &Ephemerals{
		backend: backend,
		roster:  roster,
		tick:    tick,
		metrics: noopMetrics{},
		events:  noopEvents{},
		logger:  noopLogger{},
		now:     time.Now,
		schedule: func(d time.Duration, fn func()) stopper {
			return time.AfterFunc(d, fn)
		},
		entries: make(map[uuid.UUID]*ephemeralEntry),
	}
}

// Spawn creates a temporary line at loc, shows it to every current observer
// and schedules its destruction after duration ticks.
func (e *Ephemerals) Spawn(loc Location, content string, duration Ticks) (*Display, error) {
	if duration < 0 {
		return nil, fmt.Errorf("%w: %d ticks", ErrInvalidDuration, duration)
	}

	d := newDisplay("", loc, e.backend)
	d.pages = []*Page{{Lines: []*Line{NewLine(content)}}}
	d.RealignLines()

	wait := duration.Duration(e.tick)
	entry := &ephemeralEntry{display: d, content: content, expiresAt: e.now().Add(wait)}

	// Tracked before the first show, so a concurrent DestroyAll destroys the
	// line and the shows below become no-ops.
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrManagerDestroyed
	}
	e.entries[d.ID()] = entry
	entry.timer = e.schedule(wait, func() { e.expire(d.ID()) })
	active := len(e.entries)
	e.mu.Unlock()

	for _, o := range e.roster.CurrentObservers() {
		if err := d.Show(o, 0); err != nil {
			e.logger.Warn("showing temporary line failed", "observer", o.ID.String(), "error", err)
		}
	}

	e.metrics.ObserveTemporary(active)
	e.events.Broadcast(EventTemporarySpawned, TemporaryEvent{ID: d.ID(), Content: content})
	e.logger.Debug("temporary line spawned", "id", d.ID().String(), "ticks", int64(duration))
	return d, nil
}

// expire destroys the line, then drops it from the tracked set.
func (e *Ephemerals) expire(id uuid.UUID) {
	e.mu.Lock()
	entry, ok := e.entries[id]
	e.mu.Unlock()
	if !ok {
		return
	}

	if err := entry.display.Destroy(); err != nil {
		e.logger.Warn("destroying temporary line failed", "id", id.String(), "error", err)
	}

	e.mu.Lock()
	delete(e.entries, id)
	active := len(e.entries)
	e.mu.Unlock()

	e.metrics.ObserveTemporary(active)
	e.events.Broadcast(EventTemporaryExpired, TemporaryEvent{ID: id})
}

// DestroyAll destroys every tracked line and clears the set.
func (e *Ephemerals) DestroyAll() {
	e.mu.Lock()
	entries := e.entries
	e.entries = make(map[uuid.UUID]*ephemeralEntry)
	e.mu.Unlock()

	for id, entry := range entries {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		if err := entry.display.Destroy(); err != nil {
			e.logger.Warn("destroying temporary line failed", "id", id.String(), "error", err)
		}
	}
	if len(entries) > 0 {
		e.metrics.ObserveTemporary(0)
	}
}

// Close destroys every tracked line and rejects further spawns until Open.
func (e *Ephemerals) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.DestroyAll()
}

// Open accepts spawns again after Close.
func (e *Ephemerals) Open() {
	e.mu.Lock()
	e.closed = false
	e.mu.Unlock()
}

// HideFrom hides every tracked line from one observer.
func (e *Ephemerals) HideFrom(o Observer) {
	for _, d := range e.displays() {
		if err := d.Hide(o); err != nil {
			e.logger.Warn("hiding temporary line failed", "observer", o.ID.String(), "error", err)
		}
	}
}

// Forget drops an observer from every tracked line's caches.
func (e *Ephemerals) Forget(observerID uuid.UUID) {
	for _, d := range e.displays() {
		d.forget(observerID)
	}
}

// Contains reports whether the line is still tracked.
func (e *Ephemerals) Contains(id uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.entries[id]
	return ok
}

func (e *Ephemerals) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}

// List returns the tracked lines, soonest expiry first.
func (e *Ephemerals) List() []TemporaryLine {
	e.mu.Lock()
	out := make([]TemporaryLine, 0, len(e.entries))
	for id, entry := range e.entries {
		out = append(out, TemporaryLine{
			ID:        id,
			Content:   entry.content,
			Location:  entry.display.Location(),
			ExpiresAt: entry.expiresAt,
		})
	}
	e.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	return out
}

func (e *Ephemerals) displays() []*Display {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Display, 0, len(e.entries))
	for _, entry := range e.entries {
		out = append(out, entry.display)
	}
	return out
}
