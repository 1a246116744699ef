package hologram

import (
	"context"
)

// PresentationBackend makes displays appear and disappear for observers.
//
// Implementations must be idempotent: showing an already-shown pair or
// hiding an already-hidden pair is not an error. Backends are only called
// from one goroutine at a time per display.
type PresentationBackend interface {
	// Show renders the given page of the display for the observer.
	Show(d *Display, o Observer, page int) error

	// Hide removes the display from the observer's view.
	Hide(d *Display, o Observer) error

	// HideAll removes the display from every observer's view.
	HideAll(d *Display) error
}

// PermissionOracle decides whether an observer may see a display.
type PermissionOracle interface {
	CanShow(d *Display, o Observer) bool
}

// RangeOracle decides whether an observer is close enough to see a display.
type RangeOracle interface {
	IsInRange(d *Display, o Observer) bool
}

// RegionMatcher is the cheap pre-filter used by interaction dispatch to skip
// displays that are not in the observer's world or region.
type RegionMatcher interface {
	SameRegion(d *Display, o Observer) bool
}

// ObserverRoster supplies a snapshot of the currently connected observers.
type ObserverRoster interface {
	CurrentObservers() []Observer
}

// DefinitionStore is the persistence collaborator display definitions are
// loaded from.
type DefinitionStore interface {
	// ListSources returns the identifiers of every stored definition.
	ListSources(ctx context.Context) ([]string, error)

	// Load reads and parses one definition.
	Load(ctx context.Context, source string) (Definition, error)
}

// DefinitionWriter is implemented by stores that can persist definitions.
type DefinitionWriter interface {
	Save(ctx context.Context, def Definition) error
	Delete(ctx context.Context, name string) error
}

// ActionHandler executes click actions the core does not handle itself
// (anything other than page navigation).
type ActionHandler interface {
	HandleAction(d *Display, o Observer, a Action) error
}

// EventSink receives notifications about visibility changes, for example a
// WebSocket hub. Broadcast must not block.
type EventSink interface {
	Broadcast(channel string, payload any)
}

// Metrics records reconciliation, dispatch and ephemeral statistics.
type Metrics interface {
	ObserveTick(stats TickStats)
	ObserveDispatch(result DispatchResult)
	ObserveTemporary(active int)
}

// Event channels published to the EventSink.
const (
	EventDisplayShown     = "display.shown"
	EventDisplayHidden    = "display.hidden"
	EventDisplayRemoved   = "display.removed"
	EventDisplaysReloaded = "displays.reloaded"
	EventTemporarySpawned = "temporary.spawned"
	EventTemporaryExpired = "temporary.expired"
)

// Logger defines the logging interface used by the package.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopMetrics struct{}

func (noopMetrics) ObserveTick(TickStats)           {}
func (noopMetrics) ObserveDispatch(DispatchResult) {}
func (noopMetrics) ObserveTemporary(int)           {}

type noopEvents struct{}

func (noopEvents) Broadcast(string, any) {}

// MultiMetrics fans statistics out to several Metrics sinks.
type MultiMetrics []Metrics

func (m MultiMetrics) ObserveTick(stats TickStats) {
	for _, sink := range m {
		sink.ObserveTick(stats)
	}
}

func (m MultiMetrics) ObserveDispatch(result DispatchResult) {
	for _, sink := range m {
		sink.ObserveDispatch(result)
	}
}

func (m MultiMetrics) ObserveTemporary(active int) {
	for _, sink := range m {
		sink.ObserveTemporary(active)
	}
}

// PermissionCheck is the default PermissionOracle: a display without a
// permission is visible to everyone, otherwise the observer must hold it.
type PermissionCheck struct{}

func (PermissionCheck) CanShow(d *Display, o Observer) bool {
	perm := d.Permission()
	return perm == "" || o.HasPermission(perm)
}

// DistanceRange is the default RangeOracle: the observer must be in the
// display's world and within its display range.
type DistanceRange struct{}

func (DistanceRange) IsInRange(d *Display, o Observer) bool {
	return d.Location().Distance(o.Location) <= d.DisplayRange()
}

// SameWorld is the default RegionMatcher.
type SameWorld struct{}

func (SameWorld) SameRegion(d *Display, o Observer) bool {
	return d.Location().World == o.Location.World
}
