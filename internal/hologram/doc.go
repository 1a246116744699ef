// Package hologram is the visibility core of Gray Logic Holograms.
//
// A Display is a named, positioned, multi-line object that must be shown
// to each connected observer independently, based on enablement, permission
// and distance. The package keeps every (display, observer) pair reconciled
// on a fixed cadence and routes discrete interaction events to displays.
//
// Architecture:
//
//	┌──────────────────────────────────────────────────────────┐
//	│                 Manager (manager.go)                      │
//	│   start / reload / destroy, observer join/quit helpers   │
//	│  ┌────────────┐   ┌──────────────┐   ┌────────────────┐  │
//	│  │  Registry  │◀──│  Reconciler  │──▶│   Cooldowns    │  │
//	│  │(registry.go│   │(reconcile.go)│   │ (cooldown.go)  │  │
//	│  └────────────┘   └──────────────┘   └────────────────┘  │
//	│        ▲                 ▲                   ▲           │
//	│        │          ┌──────────────┐           │           │
//	│        │          │  Scheduler   │    ┌──────────────┐   │
//	│        │          │(scheduler.go)│    │  Dispatcher  │   │
//	│        │          └──────────────┘    │(dispatcher.go│   │
//	│        └──────────────────────────────┴──────────────┘   │
//	│  ┌────────────────────────────────────────────────────┐  │
//	│  │ Ephemerals (ephemeral.go): unnamed displays         │  │
//	│  │ with a bounded lifetime, outside the Registry       │  │
//	│  └────────────────────────────────────────────────────┘  │
//	└──────────────────────────────────────────────────────────┘
//
// # Execution contexts
//
// The Scheduler owns the primary loop goroutine. Every reconciliation tick
// and every presentation-affecting task submitted with Scheduler.Submit runs
// there, because presentation backends are not required to be safe for
// concurrent use. Destruction of removed displays, observer cleanup and
// ephemeral expiry run on worker goroutines.
//
// # Collaborators
//
// Rendering, permission checks, distance checks, the observer roster and
// display persistence are supplied by the host through the interfaces in
// collaborators.go.
//
// # Usage
//
//	mgr, err := hologram.NewManager(hologram.Options{
//	    Backend: presenter,
//	    Roster:  roster,
//	    Store:   store,
//	    Logger:  log,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := mgr.Start(ctx); err != nil {
//	    return err
//	}
//	defer mgr.Close()
package hologram
