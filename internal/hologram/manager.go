package hologram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a Manager.
type State int32

const (
	StateUninitialized State = iota
	StateRunning
	StateReloading
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateReloading:
		return "reloading"
	case StateDestroyed:
		return "destroyed"
	default:
		return "uninitialized"
	}
}

// Options configures a Manager. Backend and Roster are required; every
// other collaborator has a default.
type Options struct {
	Backend PresentationBackend
	Roster  ObserverRoster

	Permissions PermissionOracle // default PermissionCheck
	Ranges      RangeOracle      // default DistanceRange
	Regions     RegionMatcher    // default SameWorld

	// Store supplies definitions on Start and Reload. Without a store a
	// reload only tears down.
	Store DefinitionStore

	Actions ActionHandler
	Metrics Metrics
	Events  EventSink
	Logger  Logger

	TickDuration        time.Duration // default DefaultTickDuration
	UpdateInterval      Ticks         // default DefaultUpdateInterval
	DefaultDisplayRange float64       // default DefaultDisplayRange
}

// Manager is the lifecycle controller. It owns the registry, the primary
// loop, the interaction dispatcher and the temporary line tracker, and
// sequences start, reload and teardown relative to the loop.
//
// All public methods are thread-safe. Lifecycle methods (Start, Reload,
// Destroy, Close) are serialised against each other.
type Manager struct {
	backend      PresentationBackend
	roster       ObserverRoster
	store        DefinitionStore
	defaultRange float64
	events       EventSink
	logger       Logger

	registry   *Registry
	cooldowns  *Cooldowns
	reconciler *Reconciler
	dispatcher *Dispatcher
	scheduler  *Scheduler
	ephemerals *Ephemerals

	lifeMu  sync.Mutex
	state   atomic.Int32
	workers sync.WaitGroup
}

// NewManager creates a manager in the Uninitialized state.
func NewManager(opts Options) (*Manager, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("%w: presentation backend", ErrMissingCollaborator)
	}
	if opts.Roster == nil {
		return nil, fmt.Errorf("%w: observer roster", ErrMissingCollaborator)
	}
	if opts.Permissions == nil {
		opts.Permissions = PermissionCheck{}
	}
	if opts.Ranges == nil {
		opts.Ranges = DistanceRange{}
	}
	if opts.Regions == nil {
		opts.Regions = SameWorld{}
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	if opts.Events == nil {
		opts.Events = noopEvents{}
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.TickDuration <= 0 {
		opts.TickDuration = DefaultTickDuration
	}
	if opts.UpdateInterval <= 0 {
		opts.UpdateInterval = DefaultUpdateInterval
	}
	if opts.DefaultDisplayRange <= 0 {
		opts.DefaultDisplayRange = DefaultDisplayRange
	}

	m := &Manager{
		backend:      opts.Backend,
		roster:       opts.Roster,
		store:        opts.Store,
		defaultRange: opts.DefaultDisplayRange,
		events:       opts.Events,
		logger:       opts.Logger,
		registry:     NewRegistry(),
		cooldowns:    NewCooldowns(),
	}

	m.reconciler = &Reconciler{
		registry:  m.registry,
		roster:    opts.Roster,
		perms:     opts.Permissions,
		ranges:    opts.Ranges,
		cooldowns: m.cooldowns,
		metrics:   opts.Metrics,
		events:    opts.Events,
		logger:    opts.Logger,
	}

	m.scheduler = NewScheduler(opts.UpdateInterval.Duration(opts.TickDuration), func() { m.reconciler.Tick() })
	m.scheduler.SetLogger(opts.Logger)

	m.dispatcher = &Dispatcher{
		registry:  m.registry,
		cooldowns: m.cooldowns,
		regions:   opts.Regions,
		actions:   opts.Actions,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		onLoop:    m.onLoop,
	}

	m.ephemerals = newEphemerals(opts.Backend, opts.Roster, opts.TickDuration)
	m.ephemerals.metrics = opts.Metrics
	m.ephemerals.events = opts.Events
	m.ephemerals.logger = opts.Logger

	m.registry.SetFinalizer(func(d *Display) {
		m.goAsync(func() { m.destroyDisplay(d) })
	})

	return m, nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Start launches the primary loop and loads every display definition.
// ctx bounds the loop's lifetime.
func (m *Manager) Start(ctx context.Context) error {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	if m.State() == StateRunning {
		return nil
	}
	m.ephemerals.Open()
	m.scheduler.Start(ctx)
	return m.reloadLocked(ctx)
}

// Reload tears everything down and loads the definitions again.
//
// The loop is stopped for the whole reload, so ticks never observe a
// half-populated registry. A definition that fails to load is logged and
// skipped; only a failure to list the sources is returned.
func (m *Manager) Reload(ctx context.Context) error {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()
	return m.reloadLocked(ctx)
}

func (m *Manager) reloadLocked(ctx context.Context) error {
	m.state.Store(int32(StateReloading))
	m.destroyLocked()

	defer func() {
		m.scheduler.Restart()
		m.state.Store(int32(StateRunning))
	}()

	if m.store == nil {
		m.events.Broadcast(EventDisplaysReloaded, map[string]any{"count": 0})
		return nil
	}

	sources, err := m.store.ListSources(ctx)
	if err != nil {
		return fmt.Errorf("listing display definitions: %w", err)
	}

	observers := m.roster.CurrentObservers()
	loaded := 0

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("reloading displays: %w", err)
		}

		d, err := m.load(ctx, source)
		if err != nil {
			m.logger.Warn("skipping display definition", "source", source, "error", err)
			continue
		}
		if d == nil {
			continue
		}

		for _, o := range observers {
			m.showIfAllowed(d, o)
		}

		prev, err := m.registry.Register(d)
		if err != nil {
			m.logger.Warn("registering display failed", "source", source, "error", err)
			m.destroyDisplay(d)
			continue
		}
		if prev != nil {
			m.logger.Warn("duplicate display name, replacing", "display", d.Name(), "source", source)
			m.destroyDisplay(prev)
		} else {
			loaded++
		}
	}

	m.logger.Info("displays loaded", "count", loaded, "sources", len(sources))
	m.events.Broadcast(EventDisplaysReloaded, map[string]any{"count": loaded})
	return nil
}

// load reads one definition. It returns nil without error for a disabled
// definition.
func (m *Manager) load(ctx context.Context, source string) (*Display, error) {
	def, err := m.store.Load(ctx, source)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			return nil, err
		}
		return nil, &LoadError{Source: source, Err: err}
	}
	if !def.IsEnabled() {
		m.logger.Debug("display definition disabled", "source", source, "display", def.Name)
		return nil, nil
	}

	d, err := m.Build(def)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	return d, nil
}

// Destroy stops the loop and tears down every display and temporary line.
// Once it returns no tick issues a transition. Calling it again is a no-op.
func (m *Manager) Destroy() {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	if m.State() == StateDestroyed {
		return
	}
	m.destroyLocked()
	m.ephemerals.Close()
	m.state.Store(int32(StateDestroyed))
}

func (m *Manager) destroyLocked() {
	m.scheduler.Stop()

	for _, d := range m.registry.Clear() {
		m.destroyDisplay(d)
	}
	m.ephemerals.DestroyAll()
	m.cooldowns.Clear()
}

// Close destroys the manager and waits for background work to finish.
func (m *Manager) Close() error {
	m.Destroy()
	m.workers.Wait()
	return nil
}

func (m *Manager) destroyDisplay(d *Display) {
	if err := d.Destroy(); err != nil {
		m.logger.Warn("destroying display failed", "display", d.label(), "error", err)
	}
	m.events.Broadcast(EventDisplayRemoved, map[string]any{"display": d.Name(), "display_id": d.ID().String()})
}

// goAsync runs fn on a worker goroutine tracked by Close.
func (m *Manager) goAsync(fn func()) {
	m.workers.Add(1)
	go func() {
		defer m.workers.Done()
		if err := guard(func() error { fn(); return nil }); err != nil {
			m.logger.Error("background task failed", "error", err)
		}
	}()
}

// onLoop runs fn on the primary loop, or inline when the loop is stopped.
func (m *Manager) onLoop(fn func()) {
	if !m.scheduler.Submit(fn) {
		fn()
	}
}

func (m *Manager) showIfAllowed(d *Display, o Observer) {
	if d.IsVisible(o.ID) || !m.reconciler.shouldShow(d, o) {
		return
	}
	page := d.ObserverPage(o.ID)
	shown, err := d.show(o, page)
	if err != nil {
		m.logger.Warn("showing display failed", "display", d.label(), "observer", o.ID.String(), "error", err)
		return
	}
	if !shown {
		return
	}
	m.reconciler.emit(EventDisplayShown, d, o, page)
}

// Build constructs an unregistered display from a definition.
func (m *Manager) Build(def Definition) (*Display, error) {
	return buildDisplay(def, m.backend, m.defaultRange)
}

// Register stores the display and returns the entry it replaced. The
// replaced display is not destroyed; use Replace for that.
func (m *Manager) Register(d *Display) (*Display, error) {
	return m.registry.Register(d)
}

// Replace registers the display and destroys any entry it displaced.
func (m *Manager) Replace(d *Display) error {
	prev, err := m.registry.Register(d)
	if err != nil {
		return err
	}
	if prev != nil {
		m.goAsync(func() { m.destroyDisplay(prev) })
	}
	return nil
}

// Get returns the display registered under name, or nil.
func (m *Manager) Get(name string) *Display { return m.registry.Get(name) }

// Contains reports whether name is registered.
func (m *Manager) Contains(name string) bool { return m.registry.Contains(name) }

// List returns a snapshot of the registered displays.
func (m *Manager) List() []*Display { return m.registry.List() }

// Names returns the registered names.
func (m *Manager) Names() []string { return m.registry.Names() }

// Remove unregisters the display and destroys it in the background.
// Persisted definitions are left alone.
func (m *Manager) Remove(name string) *Display { return m.registry.Remove(name) }

// SetEnabled toggles a registered display; visibility follows on the next tick.
func (m *Manager) SetEnabled(name string, enabled bool) error {
	d := m.registry.Get(name)
	if d == nil {
		return fmt.Errorf("%w: %q", ErrDisplayNotFound, name)
	}
	d.SetEnabled(enabled)
	return nil
}

// Dispatch routes an interaction event; see Dispatcher.
func (m *Manager) Dispatch(o Observer, targetID int32, kind ClickType) bool {
	return m.dispatcher.Dispatch(o, targetID, kind)
}

// SpawnTemporary shows a self-expiring line to every observer. It fails
// with ErrManagerDestroyed once the manager is destroyed.
func (m *Manager) SpawnTemporary(loc Location, content string, duration Ticks) (*Display, error) {
	if m.State() == StateDestroyed {
		return nil, ErrManagerDestroyed
	}
	return m.ephemerals.Spawn(loc, content, duration)
}

// Temporaries lists the tracked temporary lines.
func (m *Manager) Temporaries() []TemporaryLine { return m.ephemerals.List() }

// HasTemporary reports whether the temporary line is still alive.
func (m *Manager) HasTemporary(id uuid.UUID) bool { return m.ephemerals.Contains(id) }

// ShowAllTo shows every registered display the observer is allowed to see,
// typically when the observer connects.
func (m *Manager) ShowAllTo(o Observer) {
	m.onLoop(func() {
		for _, d := range m.registry.List() {
			m.showIfAllowed(d, o)
		}
	})
}

// HideAllFrom hides every registered display and temporary line from the observer.
func (m *Manager) HideAllFrom(o Observer) {
	m.onLoop(func() {
		for _, d := range m.registry.List() {
			if !d.IsVisible(o.ID) {
				continue
			}
			hidden, err := d.hide(o)
			if err != nil {
				m.logger.Warn("hiding display failed", "display", d.label(), "observer", o.ID.String(), "error", err)
				continue
			}
			if !hidden {
				continue
			}
			m.reconciler.emit(EventDisplayHidden, d, o, 0)
		}
		m.ephemerals.HideFrom(o)
	})
}

// ObserverQuit drops a disconnected observer from every cache. It runs on
// the primary loop so a tick in progress cannot re-show to the departed
// observer after its entries are cleared. No presentation calls are made.
func (m *Manager) ObserverQuit(id uuid.UUID) {
	m.onLoop(func() {
		for _, d := range m.registry.List() {
			d.forget(id)
		}
		m.ephemerals.Forget(id)
	})
}

// Save persists a definition when the store supports writing.
func (m *Manager) Save(ctx context.Context, def Definition) error {
	w, ok := m.store.(DefinitionWriter)
	if !ok {
		return ErrStoreReadOnly
	}
	if err := def.Validate(); err != nil {
		return err
	}
	if err := w.Save(ctx, def); err != nil {
		return fmt.Errorf("saving display %q: %w", def.Name, err)
	}
	return nil
}

// Delete removes a persisted definition when the store supports writing.
func (m *Manager) Delete(ctx context.Context, name string) error {
	w, ok := m.store.(DefinitionWriter)
	if !ok {
		return ErrStoreReadOnly
	}
	if err := w.Delete(ctx, name); err != nil {
		return fmt.Errorf("deleting display %q: %w", name, err)
	}
	return nil
}
