package host

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-holograms/internal/hologram"
	"github.com/nerrad567/gray-logic-holograms/internal/infrastructure/mqtt"
)

type published struct {
	topic   string
	payload []byte
}

type mockPublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *mockPublisher) PublishJSON(topic string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.msgs = append(p.msgs, published{topic: topic, payload: data})
	return nil
}

func (p *mockPublisher) last(t *testing.T) published {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.msgs) == 0 {
		t.Fatal("nothing published")
	}
	return p.msgs[len(p.msgs)-1]
}

type mockSubscriber struct {
	topic   string
	qos     byte
	handler mqtt.MessageHandler
	err     error
}

func (s *mockSubscriber) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	if s.err != nil {
		return s.err
	}
	s.topic, s.qos, s.handler = topic, qos, handler
	return nil
}

type dispatchCall struct {
	observer hologram.Observer
	target   int32
	kind     hologram.ClickType
}

type mockController struct {
	mu         sync.Mutex
	shown      []hologram.Observer
	hidden     []hologram.Observer
	quit       []uuid.UUID
	dispatched []dispatchCall
	handled    bool
}

func (c *mockController) ShowAllTo(o hologram.Observer) {
	c.mu.Lock()
	c.shown = append(c.shown, o)
	c.mu.Unlock()
}

func (c *mockController) HideAllFrom(o hologram.Observer) {
	c.mu.Lock()
	c.hidden = append(c.hidden, o)
	c.mu.Unlock()
}

func (c *mockController) ObserverQuit(id uuid.UUID) {
	c.mu.Lock()
	c.quit = append(c.quit, id)
	c.mu.Unlock()
}

func (c *mockController) Dispatch(o hologram.Observer, targetID int32, kind hologram.ClickType) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatched = append(c.dispatched, dispatchCall{o, targetID, kind})
	return c.handled
}

var errBroker = errors.New("broker unavailable")

// buildDisplay builds an unregistered display through a manager wired to
// the presenter under test.
func buildDisplay(t *testing.T, backend hologram.PresentationBackend, def hologram.Definition) *hologram.Display {
	t.Helper()
	m, err := hologram.NewManager(hologram.Options{Backend: backend, Roster: NewRoster()})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	t.Cleanup(func() { m.Close() }) //nolint:errcheck // test cleanup
	d, err := m.Build(def)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return d
}

func lobbyDefinition() hologram.Definition {
	return hologram.Definition{
		Name:       "lobby",
		Location:   hologram.Location{World: "world", X: 10, Y: 64},
		Permission: "holo.lobby",
		Pages: []hologram.PageDefinition{
			{Lines: []hologram.LineDefinition{{Content: "Welcome"}, {Content: "Click me"}}},
			{Lines: []hologram.LineDefinition{{Content: "Page two"}}},
		},
	}
}
