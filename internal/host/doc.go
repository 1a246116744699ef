// Package host provides the host-side collaborators holocore needs when it
// runs as a standalone service rather than inside a game server.
//
// Roster tracks connected observers from presence messages and answers the
// core's permission and range questions against their latest state.
// Presenter renders displays by publishing show and hide instructions over
// MQTT. Bridge consumes presence and interaction messages and drives the
// hologram manager.
//
//	render clients ──presence/interact──▶ Bridge ──▶ Roster, Manager
//	Manager ──Show/Hide──▶ Presenter ──render/{observer}/show──▶ render clients
package host
