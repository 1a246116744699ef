package host

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-holograms/internal/hologram"
	"github.com/nerrad567/gray-logic-holograms/internal/infrastructure/mqtt"
)

// Presence statuses.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Controller is the part of hologram.Manager the bridge drives.
type Controller interface {
	ShowAllTo(o hologram.Observer)
	HideAllFrom(o hologram.Observer)
	ObserverQuit(id uuid.UUID)
	Dispatch(o hologram.Observer, targetID int32, kind hologram.ClickType) bool
}

// Subscriber is the part of the MQTT client the bridge uses.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Logger defines the logging interface used by the package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// PresenceMessage is published by a render client when its observer
// connects, moves or leaves. An empty status means online.
type PresenceMessage struct {
	Name        string            `json:"name"`
	Status      string            `json:"status"`
	Location    hologram.Location `json:"location"`
	Permissions []string          `json:"permissions,omitempty"`
}

// InteractMessage is published when an observer clicks a line entity.
type InteractMessage struct {
	TargetID int32  `json:"target_id"`
	Click    string `json:"click"`
}

// Bridge turns observer presence and interaction messages into roster
// updates and manager calls.
//
// A newly online observer is shown every display it may see. An observer
// that changes world has everything hidden and re-shown for the new world.
// Other presence updates only refresh the roster; the next reconciliation
// pass picks them up. Offline observers are dropped without presentation
// calls.
type Bridge struct {
	roster *Roster
	ctrl   Controller
	logger Logger
}

// NewBridge creates a bridge.
func NewBridge(roster *Roster, ctrl Controller) *Bridge {
	return &Bridge{roster: roster, ctrl: ctrl, logger: noopLogger{}}
}

// SetLogger sets the logger.
func (b *Bridge) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	b.logger = logger
}

// Start subscribes to every observer topic.
func (b *Bridge) Start(sub Subscriber, qos byte) error {
	topic := mqtt.Topics{}.AllObservers()
	if err := sub.Subscribe(topic, qos, b.HandleMessage); err != nil {
		return fmt.Errorf("subscribe to observers: %w", err)
	}
	b.logger.Info("subscribed to observer topics", "topic", topic)
	return nil
}

// HandleMessage is the MQTT handler for holocore/observer/{id}/{kind}.
func (b *Bridge) HandleMessage(topic string, payload []byte) error {
	rawID, kind, ok := mqtt.ParseObserverTopic(topic)
	if !ok {
		return fmt.Errorf("%w: unexpected topic %q", ErrInvalidMessage, topic)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("%w: observer id %q: %w", ErrInvalidMessage, rawID, err)
	}

	switch kind {
	case mqtt.KindPresence:
		var msg PresenceMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("%w: presence: %w", ErrInvalidMessage, err)
		}
		return b.HandlePresence(id, msg)
	case mqtt.KindInteract:
		var msg InteractMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("%w: interact: %w", ErrInvalidMessage, err)
		}
		_, err := b.HandleInteract(id, msg)
		return err
	default:
		b.logger.Debug("ignoring observer message", "topic", topic)
		return nil
	}
}

// HandlePresence applies a presence update.
func (b *Bridge) HandlePresence(id uuid.UUID, msg PresenceMessage) error {
	switch msg.Status {
	case "", StatusOnline:
	case StatusOffline:
		if _, ok := b.roster.Remove(id); ok {
			b.ctrl.ObserverQuit(id)
			b.logger.Info("observer offline", "observer", id.String())
		}
		return nil
	default:
		return fmt.Errorf("%w: presence status %q", ErrInvalidMessage, msg.Status)
	}

	o := hologram.Observer{
		ID:          id,
		Name:        msg.Name,
		Location:    msg.Location,
		Permissions: msg.Permissions,
	}
	prev, existed := b.roster.Upsert(o)

	switch {
	case !existed:
		b.logger.Info("observer online", "observer", id.String(), "name", o.Name)
		b.ctrl.ShowAllTo(o)
	case prev.Location.World != o.Location.World:
		b.logger.Debug("observer changed world", "observer", id.String(),
			"from", prev.Location.World, "to", o.Location.World)
		b.ctrl.HideAllFrom(prev)
		b.ctrl.ShowAllTo(o)
	}
	return nil
}

// HandleInteract dispatches a click from a known observer and reports
// whether a display handled it.
func (b *Bridge) HandleInteract(id uuid.UUID, msg InteractMessage) (bool, error) {
	o, ok := b.roster.Get(id)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownObserver, id)
	}
	kind, err := hologram.ParseClickType(msg.Click)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return b.ctrl.Dispatch(o, msg.TargetID, kind), nil
}
