package hologram

import (
	"sync"

	"github.com/google/uuid"
)

// DispatchResult describes the outcome of one interaction event.
type DispatchResult struct {
	Observer  uuid.UUID
	Kind      ClickType
	Display   string
	Handled   bool
	Debounced bool
	Failed    int
}

// Dispatcher routes interaction events to the first display that claims
// them. An observer whose event was handled is put on cooldown until the
// next tick clears the set; events from an observer on cooldown are dropped
// without consulting any display.
type Dispatcher struct {
	registry  *Registry
	cooldowns *Cooldowns
	regions   RegionMatcher
	actions   ActionHandler
	metrics   Metrics
	logger    Logger

	// onLoop runs fn on the primary loop, or inline when it is stopped.
	onLoop func(fn func())

	// mu makes the cooldown check and the cooldown add one step.
	mu sync.Mutex
}

// Dispatch routes the event and reports whether a display handled it.
func (x *Dispatcher) Dispatch(o Observer, targetID int32, kind ClickType) bool {
	res := DispatchResult{Observer: o.ID, Kind: kind}
	d, actions := x.route(o, targetID, kind, &res)
	x.metrics.ObserveDispatch(res)

	if d == nil {
		return false
	}
	x.execute(d, o, actions)
	return true
}

func (x *Dispatcher) route(o Observer, targetID int32, kind ClickType, res *DispatchResult) (*Display, []Action) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.cooldowns.Contains(o.ID) {
		res.Debounced = true
		return nil, nil
	}

	for _, d := range x.registry.List() {
		var (
			actions []Action
			claimed bool
		)
		err := guard(func() error {
			if !x.regions.SameRegion(d, o) {
				return nil
			}
			actions, claimed = d.claim(o, targetID, kind)
			return nil
		})
		if err != nil {
			res.Failed++
			x.logger.Warn("interaction claim check failed",
				"observer", o.ID.String(),
				"error", &DispatchError{Display: d.label(), Err: err},
			)
			continue
		}
		if claimed {
			x.cooldowns.Add(o.ID)
			res.Handled = true
			res.Display = d.Name()
			return d, actions
		}
	}
	return nil, nil
}

// execute runs claimed actions in order. Page navigation is handled here;
// everything else goes to the ActionHandler.
func (x *Dispatcher) execute(d *Display, o Observer, actions []Action) {
	for _, a := range actions {
		if a.isNavigation() {
			x.navigate(d, o, a)
			continue
		}

		if x.actions == nil {
			x.logger.Debug("no action handler, dropping action", "display", d.label(), "action", a.String())
			continue
		}
		if err := guard(func() error { return x.actions.HandleAction(d, o, a) }); err != nil {
			x.logger.Warn("click action failed",
				"display", d.label(),
				"observer", o.ID.String(),
				"action", a.String(),
				"error", err,
			)
		}
	}
}

func (x *Dispatcher) navigate(d *Display, o Observer, a Action) {
	current := d.ObserverPage(o.ID)
	next := a.targetPage(current, d.PageCount())
	if next == current {
		return
	}
	d.setObserverPage(o.ID, next)

	x.onLoop(func() {
		if !d.IsVisible(o.ID) {
			return
		}
		if err := d.Show(o, d.ObserverPage(o.ID)); err != nil {
			x.logger.Warn("page change failed", "display", d.label(), "observer", o.ID.String(), "error", err)
		}
	})
}
