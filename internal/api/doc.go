// Package api implements the HTTP REST API and WebSocket server for holocore.
//
// This package provides:
//   - REST endpoints for display CRUD, reload, temporary lines and interactions
//   - WebSocket hub relaying visibility events to operator tooling
//   - Prometheus exposition of the collectors in infrastructure/metrics
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// The server sits next to the MQTT host bridge. The bridge feeds observer
// presence and clicks into the hologram manager; the API lets operators
// manage displays and inspect the running state. Both drive the same
// *hologram.Manager, so every write is visible to the reconciliation loop
// on its next tick.
//
// # Graceful Degradation
//
// The server operates without MQTT. Display management, the WebSocket feed
// and /metrics keep working; only render output to hosts stops.
package api
