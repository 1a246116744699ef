package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/gray-logic-holograms/internal/hologram"
	"github.com/nerrad567/gray-logic-holograms/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-holograms/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-holograms/internal/infrastructure/metrics"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// ObserverLookup resolves an observer ID against the live roster.
type ObserverLookup interface {
	Get(id uuid.UUID) (hologram.Observer, bool)
	Len() int
}

// ConnectionReporter is satisfied by the MQTT client.
type ConnectionReporter interface {
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Metrics   config.MetricsConfig
	Logger    *logging.Logger
	Manager   *hologram.Manager
	Observers ObserverLookup
	Hub       *Hub // If nil, the server creates its own on Start

	// Optional.
	Collector *metrics.Collector
	Gatherer  prometheus.Gatherer
	MQTT      ConnectionReporter
	DB        *sql.DB
	Version   string
}

// Server is the HTTP API server for holocore.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	metricsCfg config.MetricsConfig
	logger     *logging.Logger
	manager    *hologram.Manager
	observers  ObserverLookup
	collector  *metrics.Collector
	gatherer   prometheus.Gatherer
	mqtt       ConnectionReporter
	db         *sql.DB
	version    string
	startTime  time.Time
	server     *http.Server
	hub        *Hub
	cancel     context.CancelFunc
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Manager == nil {
		return nil, fmt.Errorf("hologram manager is required")
	}
	if deps.Observers == nil {
		return nil, fmt.Errorf("observer lookup is required")
	}

	return &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		metricsCfg: deps.Metrics,
		logger:     deps.Logger,
		manager:    deps.Manager,
		observers:  deps.Observers,
		collector:  deps.Collector,
		gatherer:   deps.Gatherer,
		mqtt:       deps.MQTT,
		db:         deps.DB,
		version:    deps.Version,
		startTime:  time.Now(),
		hub:        deps.Hub,
	}, nil
}

// Hub returns the WebSocket hub, or nil before Start when none was injected.
func (s *Server) Hub() *Hub { return s.hub }

// Start builds the router and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
