package hologram

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// TickStats summarises one reconciliation tick.
type TickStats struct {
	Tick      uint64
	Displays  int
	Observers int
	Evaluated int
	Shown     int
	Hidden    int
	Failed    int
	Duration  time.Duration
}

// VisibilityEvent is the payload broadcast when a display is shown to or
// hidden from an observer.
type VisibilityEvent struct {
	Display   string    `json:"display"`
	DisplayID string    `json:"display_id"`
	Observer  uuid.UUID `json:"observer"`
	Page      int       `json:"page,omitempty"`
}

// Reconciler evaluates every (display, observer) pair and applies the
// show and hide transitions the current conditions call for.
//
// A pair is shown when the display is enabled, the observer may see it and
// the observer is in range. A visible pair is hidden as soon as any of those
// conditions fails. Pairs already in the required state are left alone.
type Reconciler struct {
	registry  *Registry
	roster    ObserverRoster
	perms     PermissionOracle
	ranges    RangeOracle
	cooldowns *Cooldowns
	metrics   Metrics
	events    EventSink
	logger    Logger

	ticks atomic.Uint64
}

// Tick runs one reconciliation pass over a snapshot of the registry and the
// roster, then clears the cooldown set.
func (r *Reconciler) Tick() TickStats {
	start := time.Now()
	stats := TickStats{Tick: r.ticks.Add(1)}

	displays := r.registry.List()
	observers := r.roster.CurrentObservers()
	stats.Displays = len(displays)
	stats.Observers = len(observers)

	for _, d := range displays {
		if d.IsDestroyed() {
			continue
		}
		for _, o := range observers {
			r.reconcilePair(d, o, &stats)
		}
	}

	r.cooldowns.Clear()

	stats.Duration = time.Since(start)
	r.metrics.ObserveTick(stats)
	return stats
}

func (r *Reconciler) reconcilePair(d *Display, o Observer, stats *TickStats) {
	stats.Evaluated++

	err := guard(func() error {
		if !d.IsVisible(o.ID) {
			if !r.shouldShow(d, o) {
				return nil
			}
			page := d.ObserverPage(o.ID)
			shown, err := d.show(o, page)
			if err != nil || !shown {
				return err
			}
			stats.Shown++
			r.emit(EventDisplayShown, d, o, page)
			return nil
		}

		if r.shouldShow(d, o) {
			return nil
		}
		hidden, err := d.hide(o)
		if err != nil || !hidden {
			return err
		}
		stats.Hidden++
		r.emit(EventDisplayHidden, d, o, 0)
		return nil
	})
	if err != nil {
		var te *TransitionError
		if !errors.As(err, &te) {
			err = &TransitionError{Display: d.label(), Observer: o.ID, Op: "evaluate", Err: err}
		}
		stats.Failed++
		r.logger.Warn("display transition failed",
			"display", d.label(),
			"observer", o.ID.String(),
			"error", err,
		)
	}
}

// shouldShow evaluates the show conditions, cheapest first.
func (r *Reconciler) shouldShow(d *Display, o Observer) bool {
	return d.IsEnabled() && r.perms.CanShow(d, o) && r.ranges.IsInRange(d, o)
}

func (r *Reconciler) emit(channel string, d *Display, o Observer, page int) {
	r.events.Broadcast(channel, VisibilityEvent{
		Display:   d.Name(),
		DisplayID: d.ID().String(),
		Observer:  o.ID,
		Page:      page,
	})
}
