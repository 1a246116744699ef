// Package config handles loading and validating holocore configuration.
//
// Values come from three layers, later layers winning:
//   - defaults from defaultConfig
//   - the YAML file named by HOLOCORE_CONFIG (default configs/config.yaml)
//   - HOLOCORE_* environment variables
//
// Secrets (MQTT password, InfluxDB token) should be supplied through the
// environment rather than the file.
//
// Usage:
//
//	cfg, err := config.Load(config.Path())
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Holograms.UpdateInterval())
package config
