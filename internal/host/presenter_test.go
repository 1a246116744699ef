package host

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-holograms/internal/hologram"
)

func TestPresenter_Show(t *testing.T) {
	pub := &mockPublisher{}
	p := NewPresenter(pub)
	d := buildDisplay(t, p, lobbyDefinition())
	o := hologram.Observer{ID: uuid.New()}

	if err := p.Show(d, o, 0); err != nil {
		t.Fatalf("Show() error = %v", err)
	}

	msg := pub.last(t)
	if msg.topic != "holocore/render/"+o.ID.String()+"/show" {
		t.Errorf("topic = %q", msg.topic)
	}
	var view hologram.View
	if err := json.Unmarshal(msg.payload, &view); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if view.Name != "lobby" || view.DisplayID != d.ID().String() || len(view.Lines) != 2 {
		t.Errorf("view = %+v", view)
	}
	if view.Lines[1].Offset.Y >= 0 {
		t.Errorf("second line should sit below the first: %+v", view.Lines[1])
	}
}

func TestPresenter_HideAndHideAll(t *testing.T) {
	pub := &mockPublisher{}
	p := NewPresenter(pub)
	d := buildDisplay(t, p, lobbyDefinition())
	o := hologram.Observer{ID: uuid.New()}

	if err := p.Hide(d, o); err != nil {
		t.Fatalf("Hide() error = %v", err)
	}
	if got := pub.last(t).topic; got != "holocore/render/"+o.ID.String()+"/hide" {
		t.Errorf("Hide topic = %q", got)
	}

	if err := p.HideAll(d); err != nil {
		t.Fatalf("HideAll() error = %v", err)
	}
	msg := pub.last(t)
	if msg.topic != "holocore/render/all/hide" {
		t.Errorf("HideAll topic = %q", msg.topic)
	}
	var hide HideMessage
	if err := json.Unmarshal(msg.payload, &hide); err != nil || hide.Name != "lobby" || hide.DisplayID == "" {
		t.Errorf("HideAll payload = %s (%v)", msg.payload, err)
	}
}

func TestPresenter_HandleAction(t *testing.T) {
	pub := &mockPublisher{}
	p := NewPresenter(pub)
	d := buildDisplay(t, p, lobbyDefinition())
	o := hologram.Observer{ID: uuid.New()}

	err := p.HandleAction(d, o, hologram.Action{Type: hologram.ActionMessage, Argument: "hello"})
	if err != nil {
		t.Fatalf("HandleAction() error = %v", err)
	}
	msg := pub.last(t)
	if msg.topic != "holocore/render/"+o.ID.String()+"/action" {
		t.Errorf("topic = %q", msg.topic)
	}
	var action ActionMessage
	if err := json.Unmarshal(msg.payload, &action); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if action.Type != hologram.ActionMessage || action.Argument != "hello" || action.Name != "lobby" {
		t.Errorf("action = %+v", action)
	}
}

func TestPresenter_PublishErrors(t *testing.T) {
	pub := &mockPublisher{err: errBroker}
	p := NewPresenter(pub)
	d := buildDisplay(t, p, lobbyDefinition())
	o := hologram.Observer{ID: uuid.New()}

	for name, err := range map[string]error{
		"show":     p.Show(d, o, 0),
		"hide":     p.Hide(d, o),
		"hide all": p.HideAll(d),
	} {
		if !errors.Is(err, errBroker) {
			t.Errorf("%s error = %v, want broker error", name, err)
		}
	}
}
