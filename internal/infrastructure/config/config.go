package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when HOLOCORE_CONFIG is not set.
const DefaultPath = "configs/config.yaml"

// Definition store kinds.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Config is the root configuration structure for holocore.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Holograms HologramsConfig `yaml:"holograms"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig identifies the deployment.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// HologramsConfig controls the display core.
type HologramsConfig struct {
	// TickDuration is the length of one host tick.
	TickDuration time.Duration `yaml:"tick_duration"`

	// UpdateIntervalTicks is how many ticks pass between reconciliation passes.
	UpdateIntervalTicks int64 `yaml:"update_interval_ticks"`

	// DefaultDisplayRange applies to definitions without a display_range.
	DefaultDisplayRange float64 `yaml:"default_display_range"`

	// Store selects where definitions come from: "file" or "sqlite".
	Store string `yaml:"store"`

	// DefinitionsDir is the YAML directory used by the file store.
	DefinitionsDir string `yaml:"definitions_dir"`
}

// UpdateInterval returns the wall-clock reconciliation period.
func (h HologramsConfig) UpdateInterval() time.Duration {
	return time.Duration(h.UpdateIntervalTicks) * h.TickDuration
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Path returns the config file location from HOLOCORE_CONFIG, or DefaultPath.
func Path() string {
	if p := os.Getenv("HOLOCORE_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern HOLOCORE_SECTION_KEY, for example
// HOLOCORE_DATABASE_PATH or HOLOCORE_HOLOGRAMS_STORE.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "holocore",
		},
		Holograms: HologramsConfig{
			TickDuration:        50 * time.Millisecond,
			UpdateIntervalTicks: 5,
			DefaultDisplayRange: 48,
			Store:               StoreFile,
			DefinitionsDir:      "./data/displays",
		},
		Database: DatabaseConfig{
			Path:        "./data/holocore.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Enabled: true,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "holocore",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     500,
			FlushInterval: 10,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies HOLOCORE_* environment variables. Only numeric
// values can fail to parse.
func applyEnvOverrides(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("HOLOCORE_SITE_ID", &cfg.Site.ID)
	setString("HOLOCORE_HOLOGRAMS_STORE", &cfg.Holograms.Store)
	setString("HOLOCORE_HOLOGRAMS_DEFINITIONS_DIR", &cfg.Holograms.DefinitionsDir)
	setString("HOLOCORE_DATABASE_PATH", &cfg.Database.Path)
	setString("HOLOCORE_MQTT_HOST", &cfg.MQTT.Broker.Host)
	setString("HOLOCORE_MQTT_USERNAME", &cfg.MQTT.Auth.Username)
	setString("HOLOCORE_MQTT_PASSWORD", &cfg.MQTT.Auth.Password)
	setString("HOLOCORE_API_HOST", &cfg.API.Host)
	setString("HOLOCORE_INFLUXDB_URL", &cfg.InfluxDB.URL)
	setString("HOLOCORE_INFLUXDB_TOKEN", &cfg.InfluxDB.Token)
	setString("HOLOCORE_LOG_LEVEL", &cfg.Logging.Level)

	var errs []error
	if v := os.Getenv("HOLOCORE_API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("HOLOCORE_API_PORT: %w", err))
		} else {
			cfg.API.Port = port
		}
	}
	if v := os.Getenv("HOLOCORE_HOLOGRAMS_TICK_DURATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("HOLOCORE_HOLOGRAMS_TICK_DURATION: %w", err))
		} else {
			cfg.Holograms.TickDuration = d
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("applying environment overrides: %w", errors.Join(errs...))
	}
	return nil
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Site.ID == "" {
		errs = append(errs, errors.New("site.id is required"))
	}

	h := c.Holograms
	if h.TickDuration <= 0 {
		errs = append(errs, errors.New("holograms.tick_duration must be positive"))
	}
	if h.UpdateIntervalTicks < 1 {
		errs = append(errs, errors.New("holograms.update_interval_ticks must be at least 1"))
	}
	if h.DefaultDisplayRange < 0 {
		errs = append(errs, errors.New("holograms.default_display_range must not be negative"))
	}
	switch h.Store {
	case StoreFile:
		if h.DefinitionsDir == "" {
			errs = append(errs, errors.New("holograms.definitions_dir is required for the file store"))
		}
	case StoreSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("holograms.store must be %q or %q", StoreFile, StoreSQLite))
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, errors.New("mqtt.qos must be 0, 1, or 2"))
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, errors.New("mqtt.broker.host is required when mqtt is enabled"))
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" || c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, errors.New("influxdb.url, influxdb.org and influxdb.bucket are required when influxdb is enabled"))
		}
	}

	if c.Metrics.Enabled && c.Metrics.Path == "" {
		errs = append(errs, errors.New("metrics.path is required when metrics are enabled"))
	}

	return errors.Join(errs...)
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
