package hologram

import (
	"testing"
)

func TestReconciler_ShowsWhenInRange(t *testing.T) {
	backend := &mockBackend{}
	reg := NewRegistry()
	d := mustBuild(t, simpleDefinition("d1"), backend)
	if _, err := reg.Register(d); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	far := Location{World: "world", X: 100}
	o := observerAt("o1", far)
	roster := newMockRoster(o)
	r := newTestReconciler(reg, roster)

	// Tick 1: out of range, nothing happens.
	stats := r.Tick()
	if stats.Shown != 0 || len(backend.getCalls()) != 0 {
		t.Fatalf("tick 1: shown=%d calls=%v, want none", stats.Shown, backend.getCalls())
	}

	// Tick 2: observer walks up to the display.
	o.Location = Location{World: "world", X: 2}
	roster.put(o)
	stats = r.Tick()

	if stats.Shown != 1 {
		t.Errorf("tick 2: shown = %d, want 1", stats.Shown)
	}
	calls := backend.getCalls()
	if len(calls) != 1 || calls[0].Op != "show" || calls[0].Observer != o.ID || calls[0].Page != 0 {
		t.Errorf("calls = %+v, want one show to o1 on page 0", calls)
	}
	if !d.IsVisible(o.ID) {
		t.Error("pair should be visible")
	}
}

func TestReconciler_Idempotent(t *testing.T) {
	backend := &mockBackend{}
	reg := NewRegistry()
	near := mustBuild(t, simpleDefinition("near"), backend)
	far := simpleDefinition("far")
	far.Location = Location{World: "world", X: 500}
	farDisplay := mustBuild(t, far, backend)
	for _, d := range []*Display{near, farDisplay} {
		if _, err := reg.Register(d); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}

	r := newTestReconciler(reg, newMockRoster(observerAt("o1", origin), observerAt("o2", origin)))

	first := r.Tick()
	if first.Shown != 2 {
		t.Fatalf("first tick shown = %d, want 2", first.Shown)
	}
	before := len(backend.getCalls())

	for i := 0; i < 5; i++ {
		stats := r.Tick()
		if stats.Shown != 0 || stats.Hidden != 0 {
			t.Fatalf("tick %d: shown=%d hidden=%d, want no transitions", i+2, stats.Shown, stats.Hidden)
		}
	}
	if after := len(backend.getCalls()); after != before {
		t.Errorf("backend calls grew from %d to %d with unchanged inputs", before, after)
	}
}

func TestReconciler_HidesOnAnyFailingCondition(t *testing.T) {
	tests := []struct {
		name   string
		change func(d *Display, o *Observer)
	}{
		{"disabled", func(d *Display, _ *Observer) { d.SetEnabled(false) }},
		{"out of range", func(_ *Display, o *Observer) { o.Location.X = 1000 }},
		{"changed world", func(_ *Display, o *Observer) { o.Location.World = "nether" }},
		{"lost permission", func(_ *Display, o *Observer) { o.Permissions = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &mockBackend{}
			reg := NewRegistry()
			def := simpleDefinition("vip")
			def.Permission = "holo.vip"
			d := mustBuild(t, def, backend)
			if _, err := reg.Register(d); err != nil {
				t.Fatalf("Register() error = %v", err)
			}

			o := observerAt("o1", origin, "holo.vip")
			roster := newMockRoster(o)
			r := newTestReconciler(reg, roster)

			if stats := r.Tick(); stats.Shown != 1 {
				t.Fatalf("shown = %d, want 1", stats.Shown)
			}

			tt.change(d, &o)
			roster.put(o)

			if stats := r.Tick(); stats.Hidden != 1 {
				t.Fatalf("hidden = %d, want 1", stats.Hidden)
			}
			if d.IsVisible(o.ID) {
				t.Error("pair should be hidden")
			}

			// Still failing: no redundant hide.
			if stats := r.Tick(); stats.Hidden != 0 || stats.Shown != 0 {
				t.Errorf("third tick shown=%d hidden=%d, want none", stats.Shown, stats.Hidden)
			}
			if got := backend.count("hide", "vip"); got != 1 {
				t.Errorf("hide calls = %d, want 1", got)
			}
		})
	}
}

func TestReconciler_IsolatesFailures(t *testing.T) {
	backend := &mockBackend{}
	reg := NewRegistry()
	for _, name := range []string{"bad", "good"} {
		if _, err := reg.Register(mustBuild(t, simpleDefinition(name), backend)); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}

	r := newTestReconciler(reg, newMockRoster(observerAt("o1", origin)))
	r.perms = panicOracle{name: "bad"}

	stats := r.Tick()
	if stats.Failed != 1 {
		t.Errorf("failed = %d, want 1", stats.Failed)
	}
	if stats.Shown != 1 {
		t.Errorf("shown = %d, want 1", stats.Shown)
	}
	if backend.count("show", "good") != 1 {
		t.Error("the healthy display should still be shown")
	}
}

func TestReconciler_RetriesFailedShow(t *testing.T) {
	backend := &mockBackend{failOn: "show"}
	reg := NewRegistry()
	d := mustBuild(t, simpleDefinition("flaky"), backend)
	if _, err := reg.Register(d); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	o := observerAt("o1", origin)
	r := newTestReconciler(reg, newMockRoster(o))

	if stats := r.Tick(); stats.Failed != 1 || stats.Shown != 0 {
		t.Fatalf("failed=%d shown=%d", stats.Failed, stats.Shown)
	}

	backend.setFailOn("")
	if stats := r.Tick(); stats.Shown != 1 {
		t.Errorf("shown = %d, want retry to succeed", stats.Shown)
	}
	if !d.IsVisible(o.ID) {
		t.Error("pair should be visible after retry")
	}
}

func TestReconciler_ClearsCooldownsAndReports(t *testing.T) {
	reg := NewRegistry()
	o := observerAt("o1", origin)
	r := newTestReconciler(reg, newMockRoster(o))
	metrics := &mockMetrics{}
	r.metrics = metrics

	r.cooldowns.Add(o.ID)
	stats := r.Tick()

	if r.cooldowns.Contains(o.ID) {
		t.Error("tick should clear cooldowns")
	}
	if stats.Tick != 1 || stats.Observers != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(metrics.ticks) != 1 {
		t.Errorf("metrics ticks = %d, want 1", len(metrics.ticks))
	}
}

func TestReconciler_SkipsDestroyedDisplays(t *testing.T) {
	backend := &mockBackend{}
	reg := NewRegistry()
	d := mustBuild(t, simpleDefinition("gone"), backend)
	if _, err := reg.Register(d); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := d.Destroy(); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	backend.reset()

	r := newTestReconciler(reg, newMockRoster(observerAt("o1", origin)))
	if stats := r.Tick(); stats.Shown != 0 || stats.Evaluated != 0 {
		t.Errorf("stats = %+v, want destroyed display skipped", stats)
	}
	if len(backend.getCalls()) != 0 {
		t.Error("destroyed display must not reach the backend")
	}
}

// destroyingOracle destroys the display it is asked about, as a concurrent
// Replace would between the checks and the show.
type destroyingOracle struct{}

func (destroyingOracle) CanShow(d *Display, _ Observer) bool {
	_ = d.Destroy()
	return true
}

func TestReconciler_DestroyedMidTickIsNotCounted(t *testing.T) {
	backend := &mockBackend{}
	events := &mockEvents{}
	reg := NewRegistry()
	d := mustBuild(t, simpleDefinition("replaced"), backend)
	if _, err := reg.Register(d); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	r := newTestReconciler(reg, newMockRoster(observerAt("o1", origin)))
	r.perms = destroyingOracle{}
	r.events = events

	stats := r.Tick()
	if stats.Shown != 0 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want nothing shown", stats)
	}
	if backend.count("show", "replaced") != 0 {
		t.Error("destroyed display must not reach the backend")
	}
	if events.count(EventDisplayShown) != 0 {
		t.Error("no shown event for a destroyed display")
	}
}
