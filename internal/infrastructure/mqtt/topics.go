package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every holocore topic.
const TopicPrefix = "holocore"

// Observer message kinds, the last segment of holocore/observer/{id}/{kind}.
const (
	KindPresence = "presence"
	KindInteract = "interact"
)

// broadcastTarget replaces the observer segment for messages addressed to
// every observer.
const broadcastTarget = "all"

// Topics provides builders for holocore MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.RenderShow("6f1c...") // holocore/render/6f1c.../show
type Topics struct{}

// RenderShow is where show instructions for one observer are published.
func (Topics) RenderShow(observerID string) string {
	return fmt.Sprintf("%s/render/%s/show", TopicPrefix, observerID)
}

// RenderHide is where hide instructions for one observer are published.
func (Topics) RenderHide(observerID string) string {
	return fmt.Sprintf("%s/render/%s/hide", TopicPrefix, observerID)
}

// RenderAction carries click actions the core forwards to a render client,
// such as messages or commands.
func (Topics) RenderAction(observerID string) string {
	return fmt.Sprintf("%s/render/%s/action", TopicPrefix, observerID)
}

// RenderHideAll removes a display for every observer.
func (Topics) RenderHideAll() string {
	return fmt.Sprintf("%s/render/%s/hide", TopicPrefix, broadcastTarget)
}

// ObserverPresence carries online/offline and position updates for an observer.
func (Topics) ObserverPresence(observerID string) string {
	return fmt.Sprintf("%s/observer/%s/%s", TopicPrefix, observerID, KindPresence)
}

// ObserverInteract carries click events from an observer.
func (Topics) ObserverInteract(observerID string) string {
	return fmt.Sprintf("%s/observer/%s/%s", TopicPrefix, observerID, KindInteract)
}

// AllObservers matches presence and interaction topics for every observer.
func (Topics) AllObservers() string {
	return fmt.Sprintf("%s/observer/+/+", TopicPrefix)
}

// SystemStatus is the retained online/offline topic, also used for the LWT.
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", TopicPrefix)
}

// ParseObserverTopic splits holocore/observer/{id}/{kind}. ok is false for
// any other topic shape.
func ParseObserverTopic(topic string) (observerID, kind string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != TopicPrefix || parts[1] != "observer" {
		return "", "", false
	}
	if parts[2] == "" || parts[3] == "" {
		return "", "", false
	}
	return parts[2], parts[3], true
}
