package hologram

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// ─── Mock Collaborators ─────────────────────────────────────────────────────

type backendCall struct {
	Op       string
	Display  string
	Observer uuid.UUID
	Page     int
}

// mockBackend records every presentation call.
type mockBackend struct {
	mu      sync.Mutex
	calls   []backendCall
	failOn  string // op to fail ("show", "hide", "hide_all")
	panicOn string // op to panic on
}

func (b *mockBackend) record(c backendCall) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.panicOn == c.Op {
		panic("backend exploded")
	}
	if b.failOn == c.Op {
		return errors.New("backend failure")
	}
	b.calls = append(b.calls, c)
	return nil
}

func (b *mockBackend) Show(d *Display, o Observer, page int) error {
	// Exercise the view path the way a real backend does.
	_ = d.View(page)
	return b.record(backendCall{Op: "show", Display: d.label(), Observer: o.ID, Page: page})
}

func (b *mockBackend) Hide(d *Display, o Observer) error {
	return b.record(backendCall{Op: "hide", Display: d.label(), Observer: o.ID})
}

func (b *mockBackend) HideAll(d *Display) error {
	return b.record(backendCall{Op: "hide_all", Display: d.label()})
}

func (b *mockBackend) getCalls() []backendCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	cpy := make([]backendCall, len(b.calls))
	copy(cpy, b.calls)
	return cpy
}

func (b *mockBackend) count(op, display string) int {
	n := 0
	for _, c := range b.getCalls() {
		if c.Op == op && c.Display == display {
			n++
		}
	}
	return n
}

func (b *mockBackend) setFailOn(op string) {
	b.mu.Lock()
	b.failOn = op
	b.mu.Unlock()
}

func (b *mockBackend) reset() {
	b.mu.Lock()
	b.calls = nil
	b.mu.Unlock()
}

// mockRoster is a mutable observer snapshot.
type mockRoster struct {
	mu        sync.Mutex
	observers map[uuid.UUID]Observer
}

func newMockRoster(observers ...Observer) *mockRoster {
	r := &mockRoster{observers: make(map[uuid.UUID]Observer)}
	for _, o := range observers {
		r.observers[o.ID] = o
	}
	return r
}

func (r *mockRoster) CurrentObservers() []Observer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Observer, 0, len(r.observers))
	for _, o := range r.observers {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func (r *mockRoster) put(o Observer) {
	r.mu.Lock()
	r.observers[o.ID] = o
	r.mu.Unlock()
}

func (r *mockRoster) remove(id uuid.UUID) {
	r.mu.Lock()
	delete(r.observers, id)
	r.mu.Unlock()
}

// mockStore serves definitions from memory.
type mockStore struct {
	mu      sync.Mutex
	defs    map[string]Definition
	order   []string
	failOn  map[string]error
	listErr error
	saved   []string
	deleted []string
}

func newMockStore(defs ...Definition) *mockStore {
	s := &mockStore{defs: make(map[string]Definition), failOn: make(map[string]error)}
	for _, def := range defs {
		s.put(def)
	}
	return s
}

func (s *mockStore) put(def Definition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	source := def.Name + ".yml"
	if _, ok := s.defs[source]; !ok {
		s.order = append(s.order, source)
	}
	s.defs[source] = def
}

func (s *mockStore) ListSources(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]string(nil), s.order...), nil
}

func (s *mockStore) Load(_ context.Context, source string) (Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOn[source]; err != nil {
		return Definition{}, err
	}
	def, ok := s.defs[source]
	if !ok {
		return Definition{}, errors.New("no such source")
	}
	return def, nil
}

// writableStore adds DefinitionWriter to mockStore.
type writableStore struct {
	*mockStore
}

func (s writableStore) Save(_ context.Context, def Definition) error {
	s.put(def)
	s.mu.Lock()
	s.saved = append(s.saved, def.Name)
	s.mu.Unlock()
	return nil
}

func (s writableStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, name)
	delete(s.defs, name+".yml")
	return nil
}

// mockActions records forwarded click actions.
type mockActions struct {
	mu      sync.Mutex
	actions []Action
}

func (a *mockActions) HandleAction(_ *Display, _ Observer, action Action) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
	return nil
}

func (a *mockActions) getActions() []Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Action(nil), a.actions...)
}

// mockEvents captures broadcasts.
type mockEvents struct {
	mu       sync.Mutex
	channels []string
}

func (e *mockEvents) Broadcast(channel string, _ any) {
	e.mu.Lock()
	e.channels = append(e.channels, channel)
	e.mu.Unlock()
}

func (e *mockEvents) count(channel string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.channels {
		if c == channel {
			n++
		}
	}
	return n
}

// mockMetrics captures observed statistics.
type mockMetrics struct {
	mu         sync.Mutex
	ticks      []TickStats
	dispatches []DispatchResult
	temporary  []int
}

func (m *mockMetrics) ObserveTick(stats TickStats) {
	m.mu.Lock()
	m.ticks = append(m.ticks, stats)
	m.mu.Unlock()
}

func (m *mockMetrics) ObserveDispatch(result DispatchResult) {
	m.mu.Lock()
	m.dispatches = append(m.dispatches, result)
	m.mu.Unlock()
}

func (m *mockMetrics) ObserveTemporary(active int) {
	m.mu.Lock()
	m.temporary = append(m.temporary, active)
	m.mu.Unlock()
}

// panicOracle panics for one display name.
type panicOracle struct {
	name string
}

func (p panicOracle) CanShow(d *Display, _ Observer) bool {
	if d.Name() == p.name {
		panic("oracle exploded")
	}
	return true
}

func (p panicOracle) SameRegion(d *Display, _ Observer) bool {
	if d.Name() == p.name {
		panic("region check exploded")
	}
	return true
}

// ─── Helpers ────────────────────────────────────────────────────────────────

var origin = Location{World: "world"}

func observerAt(name string, loc Location, perms ...string) Observer {
	return Observer{ID: uuid.New(), Name: name, Location: loc, Permissions: perms}
}

func simpleDefinition(name string, lines ...string) Definition {
	if len(lines) == 0 {
		lines = []string{"line one"}
	}
	page := PageDefinition{}
	for _, l := range lines {
		page.Lines = append(page.Lines, LineDefinition{Content: l})
	}
	return Definition{Name: name, Location: origin, Pages: []PageDefinition{page}}
}

func mustBuild(t *testing.T, def Definition, backend PresentationBackend) *Display {
	t.Helper()
	d, err := buildDisplay(def, backend, DefaultDisplayRange)
	if err != nil {
		t.Fatalf("buildDisplay(%q) error = %v", def.Name, err)
	}
	return d
}

// newTestReconciler wires a reconciler with default oracles.
func newTestReconciler(reg *Registry, roster ObserverRoster) *Reconciler {
	return &Reconciler{
		registry:  reg,
		roster:    roster,
		perms:     PermissionCheck{},
		ranges:    DistanceRange{},
		cooldowns: NewCooldowns(),
		metrics:   noopMetrics{},
		events:    noopEvents{},
		logger:    noopLogger{},
	}
}

// newTestManager creates a manager with a long interval so tests drive
// ticks explicitly.
func newTestManager(t *testing.T, backend *mockBackend, roster *mockRoster, store DefinitionStore) *Manager {
	t.Helper()
	opts := Options{
		Backend:        backend,
		Roster:         roster,
		TickDuration:   time.Hour,
		UpdateInterval: 1,
	}
	if store != nil {
		opts.Store = store
	}
	m, err := NewManager(opts)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
