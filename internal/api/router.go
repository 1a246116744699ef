package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	if s.collector != nil {
		r.Use(s.collector.Middleware)
	}

	if s.metricsCfg.Enabled && s.gatherer != nil {
		r.Handle(s.metricsCfg.Path, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Get(s.wsPath(), s.handleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/system", s.handleSystem)

		r.Route("/displays", func(r chi.Router) {
			r.Get("/", s.handleListDisplays)
			r.Post("/", s.handleCreateDisplay)

			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetDisplay)
				r.Delete("/", s.handleDeleteDisplay)
				r.Post("/enable", s.handleSetEnabled(true))
				r.Post("/disable", s.handleSetEnabled(false))
			})
		})

		r.Post("/reload", s.handleReload)

		r.Route("/temporary", func(r chi.Router) {
			r.Get("/", s.handleListTemporary)
			r.Post("/", s.handleSpawnTemporary)
		})

		r.Post("/interact", s.handleInteract)
	})

	return r
}

func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}

// handleHealth returns basic liveness information.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"state":   s.manager.State().String(),
	})
}
