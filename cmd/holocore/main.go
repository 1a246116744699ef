// holocore - per-observer hologram visibility service
//
// holocore keeps floating text displays in sync with the observers of a
// host (typically a game server). Hosts report observer presence and clicks
// over MQTT; holocore decides who sees what and publishes render commands
// back. Operators manage displays over the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/gray-logic-holograms/internal/api"
	"github.com/nerrad567/gray-logic-holograms/internal/definition"
	"github.com/nerrad567/gray-logic-holograms/internal/hologram"
	"github.com/nerrad567/gray-logic-holograms/internal/host"
	"github.com/nerrad567/gray-logic-holograms/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-holograms/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-holograms/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-holograms/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-holograms/internal/infrastructure/metrics"
	"github.com/nerrad567/gray-logic-holograms/internal/infrastructure/mqtt"
	_ "github.com/nerrad567/gray-logic-holograms/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application body, separated from main for testability.
// Deferred closes run in reverse order of startup.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting holocore",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := config.Path()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"site", cfg.Site.ID,
		"store", cfg.Holograms.Store,
	)

	// Definition store
	var (
		store hologram.DefinitionStore
		db    *database.DB
	)
	switch cfg.Holograms.Store {
	case config.StoreSQLite:
		db, err = openDatabase(ctx, cfg.Database, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		store = definition.NewSQLiteStore(db.DB)
	default:
		fs, fsErr := definition.NewFileStore(cfg.Holograms.DefinitionsDir)
		if fsErr != nil {
			return fmt.Errorf("opening definitions directory: %w", fsErr)
		}
		store = fs
		log.Info("file definition store ready", "dir", fs.Dir())
	}

	// MQTT
	var (
		mqttClient *mqtt.Client
		publisher  host.Publisher = discardPublisher{log: log}
	)
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
		publisher = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled, render output is discarded")
	}

	// Metrics sinks
	sinks := hologram.MultiMetrics{}
	reg := prometheus.NewRegistry()
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector, err = metrics.New(reg)
		if err != nil {
			return fmt.Errorf("registering metrics: %w", err)
		}
		sinks = append(sinks, collector)
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB, cfg.Site.ID)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		sinks = append(sinks, influxClient)
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Hologram core
	roster := host.NewRoster()
	presenter := host.NewPresenter(publisher)
	hub := api.NewHub(cfg.WebSocket, log)

	manager, err := hologram.NewManager(hologram.Options{
		Backend:             presenter,
		Roster:              roster,
		Permissions:         roster,
		Ranges:              roster,
		Store:               store,
		Actions:             presenter,
		Metrics:             sinks,
		Events:              hub,
		Logger:              log.With("component", "hologram"),
		TickDuration:        cfg.Holograms.TickDuration,
		UpdateInterval:      hologram.Ticks(cfg.Holograms.UpdateIntervalTicks),
		DefaultDisplayRange: cfg.Holograms.DefaultDisplayRange,
	})
	if err != nil {
		return fmt.Errorf("creating hologram manager: %w", err)
	}
	defer func() {
		log.Info("destroying displays")
		if closeErr := manager.Close(); closeErr != nil {
			log.Error("error closing hologram manager", "error", closeErr)
		}
	}()

	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("starting hologram manager: %w", err)
	}
	log.Info("hologram manager started",
		"displays", len(manager.Names()),
		"interval", cfg.Holograms.UpdateInterval(),
	)

	if mqttClient != nil {
		bridge := host.NewBridge(roster, manager)
		bridge.SetLogger(log.With("component", "bridge"))
		if err := bridge.Start(mqttClient, mqttClient.QoS()); err != nil {
			return fmt.Errorf("starting host bridge: %w", err)
		}
	}

	// HTTP API
	apiDeps := api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Metrics:   cfg.Metrics,
		Logger:    log,
		Manager:   manager,
		Observers: roster,
		Hub:       hub,
		Collector: collector,
		Gatherer:  reg,
		Version:   version,
	}
	if mqttClient != nil {
		apiDeps.MQTT = mqttClient
	}
	if db != nil {
		apiDeps.DB = db.DB
	}
	server, err := api.New(apiDeps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	reloadOnHangup(ctx, manager, log)

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// openDatabase opens and migrates the SQLite definition database.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, log *logging.Logger) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Path)
	return db, nil
}

// reloadOnHangup reloads the displays on every SIGHUP until ctx is done.
func reloadOnHangup(ctx context.Context, manager *hologram.Manager, log *logging.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			log.Info("SIGHUP received, reloading displays")
			if err := manager.Reload(ctx); err != nil {
				log.Error("reload failed", "error", err)
			}
		}
	}
}

// healthCheck verifies every enabled connection. Nil clients are skipped.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

// discardPublisher stands in for MQTT when it is disabled.
type discardPublisher struct {
	log *logging.Logger
}

func (p discardPublisher) PublishJSON(topic string, _ any) error {
	p.log.Debug("render output discarded", "topic", topic)
	return nil
}
