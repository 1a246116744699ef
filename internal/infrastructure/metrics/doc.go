// Package metrics exposes holocore statistics to Prometheus.
//
// Collector implements hologram.Metrics and also instruments HTTP handlers.
// It registers against a caller-supplied Registerer so tests and embedded
// deployments can use a private registry.
package metrics
