package host

import (
	"github.com/nerrad567/gray-logic-holograms/internal/hologram"
	"github.com/nerrad567/gray-logic-holograms/internal/infrastructure/mqtt"
)

var (
	_ hologram.PresentationBackend = (*Presenter)(nil)
	_ hologram.ActionHandler       = (*Presenter)(nil)
)

// Publisher is the part of the MQTT client the presenter uses.
type Publisher interface {
	PublishJSON(topic string, v any) error
}

// HideMessage removes one display from a render client.
type HideMessage struct {
	DisplayID string `json:"display_id"`
	Name      string `json:"name,omitempty"`
}

// ActionMessage forwards a click action to the observer's render client.
type ActionMessage struct {
	DisplayID string              `json:"display_id"`
	Name      string              `json:"name,omitempty"`
	Type      hologram.ActionType `json:"type"`
	Argument  string              `json:"argument,omitempty"`
}

// Presenter renders displays by publishing to the observers' render topics.
// Show publishes the full page view each time, so repeated calls are
// idempotent for clients.
type Presenter struct {
	pub    Publisher
	topics mqtt.Topics
}

// NewPresenter creates a presenter publishing through pub.
func NewPresenter(pub Publisher) *Presenter {
	return &Presenter{pub: pub}
}

// Show publishes the page view to the observer.
func (p *Presenter) Show(d *hologram.Display, o hologram.Observer, page int) error {
	return p.pub.PublishJSON(p.topics.RenderShow(o.ID.String()), d.View(page))
}

// Hide tells the observer to drop the display.
func (p *Presenter) Hide(d *hologram.Display, o hologram.Observer) error {
	return p.pub.PublishJSON(p.topics.RenderHide(o.ID.String()), hideMessage(d))
}

// HideAll tells every observer to drop the display.
func (p *Presenter) HideAll(d *hologram.Display) error {
	return p.pub.PublishJSON(p.topics.RenderHideAll(), hideMessage(d))
}

func hideMessage(d *hologram.Display) HideMessage {
	return HideMessage{DisplayID: d.ID().String(), Name: d.Name()}
}

// HandleAction forwards a non-navigation click action to the observer.
func (p *Presenter) HandleAction(d *hologram.Display, o hologram.Observer, a hologram.Action) error {
	return p.pub.PublishJSON(p.topics.RenderAction(o.ID.String()), ActionMessage{
		DisplayID: d.ID().String(),
		Name:      d.Name(),
		Type:      a.Type,
		Argument:  a.Argument,
	})
}
