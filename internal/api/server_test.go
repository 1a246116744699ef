package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/gray-logic-holograms/internal/definition"
	"github.com/nerrad567/gray-logic-holograms/internal/hologram"
	"github.com/nerrad567/gray-logic-holograms/internal/host"
	"github.com/nerrad567/gray-logic-holograms/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-holograms/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-holograms/internal/infrastructure/metrics"
)

// fakeBackend records presentation calls.
type fakeBackend struct {
	mu    sync.Mutex
	shown map[string]int
}

func (b *fakeBackend) Show(d *hologram.Display, _ hologram.Observer, _ int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.shown == nil {
		b.shown = make(map[string]int)
	}
	b.shown[d.ID().String()]++
	return nil
}

func (b *fakeBackend) Hide(*hologram.Display, hologram.Observer) error { return nil }
func (b *fakeBackend) HideAll(*hologram.Display) error                { return nil }

func (b *fakeBackend) showCount(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shown[id]
}

type testEnv struct {
	srv     *Server
	router  http.Handler
	manager *hologram.Manager
	roster  *host.Roster
	backend *fakeBackend
	store   *definition.FileStore
}

type envOption func(*Deps, *hologram.Options)

// withoutStore runs the manager with no definition store.
func withoutStore() envOption {
	return func(_ *Deps, o *hologram.Options) { o.Store = nil }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	store, err := definition.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	env := &testEnv{roster: host.NewRoster(), backend: &fakeBackend{}, store: store}
	mopts := hologram.Options{
		Backend:     env.backend,
		Roster:      env.roster,
		Permissions: env.roster,
		Ranges:      env.roster,
		Store:       store,
	}

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	deps := Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		WS:        config.WebSocketConfig{Path: "/ws", MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10},
		Logger:    log,
		Observers: env.roster,
		Version:   "test",
	}
	for _, opt := range opts {
		opt(&deps, &mopts)
	}

	hub := NewHub(deps.WS, log)
	deps.Hub = hub
	mopts.Events = hub

	env.manager, err = hologram.NewManager(mopts)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	t.Cleanup(func() { env.manager.Close() }) //nolint:errcheck // test cleanup
	deps.Manager = env.manager

	env.srv, err = New(deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	env.router = env.srv.buildRouter()
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
	return v
}

func connect(t *testing.T, r *host.Roster, name string) hologram.Observer {
	t.Helper()
	o := hologram.Observer{
		ID:       uuid.New(),
		Name:     name,
		Location: hologram.Location{World: "world", X: 1, Y: 64, Z: 1},
	}
	r.Upsert(o)
	return o
}

// ─── Health & Middleware ───────────────────────────────────────────

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	resp := decode[map[string]any](t, w)
	if resp["status"] != "ok" || resp["version"] != "test" {
		t.Errorf("health = %v", resp)
	}
	if resp["state"] != hologram.StateUninitialized.String() {
		t.Errorf("state = %v, want %s", resp["state"], hologram.StateUninitialized)
	}
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/health", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want client-123", got)
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"empty list allows all", nil, "http://localhost:3000", "http://localhost:3000"},
		{"listed origin", []string{"http://ops.local"}, "http://ops.local", "http://ops.local"},
		{"unlisted origin", []string{"http://ops.local"}, "http://evil.local", ""},
		{"wildcard", []string{"*"}, "http://any.local", "http://any.local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, func(d *Deps, _ *hologram.Options) {
				d.Config.CORS.AllowedOrigins = tt.allowed
			})

			req := httptest.NewRequest(http.MethodOptions, "/api/v1/displays", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)

			if w.Code != http.StatusNoContent {
				t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("ACAO = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/nonexistent", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestRecovery(t *testing.T) {
	env := newTestEnv(t)
	h := env.srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if got := decode[Error](t, w); got.Code != ErrCodeInternal {
		t.Errorf("code = %q, want %q", got.Code, ErrCodeInternal)
	}
}

func TestBodySizeLimit(t *testing.T) {
	env := newTestEnv(t)

	big := `{"name":"` + strings.Repeat("x", maxRequestBodySize) + `"}`
	w := env.do(t, http.MethodPost, "/api/v1/displays", big)
	if w.Code != http.StatusBadRequest {
		t.Errorf("oversized body status = %d, want 400", w.Code)
	}
}

// ─── System & Metrics ──────────────────────────────────────────────

type fakeConn bool

func (c fakeConn) IsConnected() bool { return bool(c) }

func TestSystem(t *testing.T) {
	env := newTestEnv(t, func(d *Deps, _ *hologram.Options) { d.MQTT = fakeConn(true) })
	connect(t, env.roster, "alice")
	createDisplay(t, env, lobbyDefinition("lobby"))

	w := env.do(t, http.MethodGet, "/api/v1/system", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	got := decode[SystemStatus](t, w)
	if got.Holograms.Displays != 1 || got.Holograms.Enabled != 1 || got.Holograms.Observers != 1 {
		t.Errorf("holograms = %+v", got.Holograms)
	}
	if !got.MQTT.Connected {
		t.Error("mqtt.connected should be true")
	}
	if got.Database != nil {
		t.Error("database stats should be omitted without a DB")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := metrics.New(reg)
	if err != nil {
		t.Fatalf("metrics.New() error = %v", err)
	}

	env := newTestEnv(t, func(d *Deps, _ *hologram.Options) {
		d.Metrics = config.MetricsConfig{Enabled: true, Path: "/metrics"}
		d.Collector = collector
		d.Gatherer = reg
	})

	env.do(t, http.MethodGet, "/api/v1/health", nil)

	w := env.do(t, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `holocore_http_requests_total{method="GET",path="/api/v1/health",status="200"} 1`) {
		t.Errorf("scrape missing request counter:\n%s", w.Body.String())
	}
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do(t, http.MethodGet, "/metrics", nil); w.Code != http.StatusNotFound {
		t.Errorf("metrics status = %d, want 404 when disabled", w.Code)
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	mgr, err := hologram.NewManager(hologram.Options{Backend: &fakeBackend{}, Roster: host.NewRoster()})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	tests := []struct {
		name string
		deps Deps
	}{
		{"no logger", Deps{Manager: mgr, Observers: host.NewRoster()}},
		{"no manager", Deps{Logger: log, Observers: host.NewRoster()}},
		{"no observers", Deps{Logger: log, Manager: mgr}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.deps); err == nil {
				t.Error("New() should fail")
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	if err := env.srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Start should fail")
	}
	if err := env.srv.Close(); err != nil {
		t.Errorf("Close() before Start = %v, want nil", err)
	}
}
