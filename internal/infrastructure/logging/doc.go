// Package logging provides structured logging for holocore.
//
// It wraps log/slog so every entry carries the service name and build
// version. JSON output is the default; "text" is meant for development.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Components get a child logger tagged with their name:
//
//	logger := logging.New(cfg.Logging, version)
//	manager.SetLogger(logger.With("component", "holograms"))
//
// Never log secrets such as the MQTT password or InfluxDB token.
package logging
