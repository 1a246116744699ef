package host

import (
	"testing"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-holograms/internal/hologram"
)

func TestRoster_UpsertRemove(t *testing.T) {
	r := NewRoster()
	id := uuid.New()

	if _, existed := r.Upsert(hologram.Observer{ID: id, Name: "alice"}); existed {
		t.Error("first Upsert reported existing observer")
	}
	prev, existed := r.Upsert(hologram.Observer{ID: id, Name: "alice", Location: hologram.Location{World: "nether"}})
	if !existed || prev.Location.World != "" {
		t.Errorf("second Upsert = (%+v, %v)", prev, existed)
	}
	if got, ok := r.Get(id); !ok || got.Location.World != "nether" {
		t.Errorf("Get() = (%+v, %v)", got, ok)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	if _, ok := r.Remove(id); !ok {
		t.Error("Remove() should find the observer")
	}
	if _, ok := r.Remove(id); ok {
		t.Error("second Remove() should report missing")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d after Remove", r.Len())
	}
}

func TestRoster_CurrentObserversOrdered(t *testing.T) {
	r := NewRoster()
	for _, name := range []string{"carol", "alice", "bob"} {
		r.Upsert(hologram.Observer{ID: uuid.New(), Name: name})
	}

	got := r.CurrentObservers()
	if len(got) != 3 || got[0].Name != "alice" || got[1].Name != "bob" || got[2].Name != "carol" {
		t.Errorf("CurrentObservers() = %v", got)
	}

	// The snapshot is a copy.
	got[0].Name = "mallory"
	if r.CurrentObservers()[0].Name != "alice" {
		t.Error("snapshot aliases roster state")
	}
}

func TestRoster_OraclesUseLatestState(t *testing.T) {
	r := NewRoster()
	d := buildDisplay(t, NewPresenter(&mockPublisher{}), lobbyDefinition())

	id := uuid.New()
	stale := hologram.Observer{ID: id, Location: hologram.Location{World: "world", X: 10, Y: 64}}
	r.Upsert(hologram.Observer{
		ID:          id,
		Location:    hologram.Location{World: "world", X: 500, Y: 64},
		Permissions: []string{"holo.lobby"},
	})

	if r.IsInRange(d, stale) {
		t.Error("IsInRange should use the roster's newer position")
	}
	if !r.CanShow(d, stale) {
		t.Error("CanShow should use the roster's newer permissions")
	}

}

func TestRoster_OraclesRejectDepartedObservers(t *testing.T) {
	r := NewRoster()
	d := buildDisplay(t, NewPresenter(&mockPublisher{}), lobbyDefinition())

	o := hologram.Observer{
		ID:          uuid.New(),
		Location:    hologram.Location{World: "world", X: 10, Y: 64},
		Permissions: []string{"holo.lobby"},
	}
	r.Upsert(o)
	if !r.IsInRange(d, o) || !r.CanShow(d, o) {
		t.Fatal("connected observer should pass both oracles")
	}

	// A tick may still hold the snapshot taken before the disconnect.
	r.Remove(o.ID)
	if r.IsInRange(d, o) {
		t.Error("IsInRange should reject an observer that left")
	}
	if r.CanShow(d, o) {
		t.Error("CanShow should reject an observer that left")
	}
}
