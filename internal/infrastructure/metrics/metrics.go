package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/gray-logic-holograms/internal/hologram"
)

const namespace = "holocore"

var _ hologram.Metrics = (*Collector)(nil)

// Collector holds every holocore metric.
type Collector struct {
	ticks         prometheus.Counter
	transitions   *prometheus.CounterVec
	failures      prometheus.Counter
	tickDuration  prometheus.Histogram
	displays      prometheus.Gauge
	observers     prometheus.Gauge
	interactions  *prometheus.CounterVec
	claimFailures prometheus.Counter
	temporaries   prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInflight prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "reconcile",
			Name: "ticks_total",
			Help: "Reconciliation passes completed",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "reconcile",
			Name: "transitions_total",
			Help: "Visibility transitions applied, by direction",
		}, []string{"direction"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "reconcile",
			Name: "failures_total",
			Help: "Display/observer pairs whose evaluation or transition failed",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "reconcile",
			Name:    "duration_seconds",
			Help:    "Duration of a reconciliation pass",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		displays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "displays",
			Help:      "Registered displays seen by the last pass",
		}),
		observers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "observers",
			Help:      "Connected observers seen by the last pass",
		}),
		interactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "dispatch",
			Name: "interactions_total",
			Help: "Interaction events by click type and outcome",
		}, []string{"click", "outcome"}),
		claimFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "dispatch",
			Name: "claim_failures_total",
			Help: "Claim checks that failed while routing an interaction",
		}),
		temporaries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temporary_lines",
			Help:      "Live temporary lines",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http",
			Name: "requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"path", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http",
			Name:    "request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method", "status"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "http",
			Name: "inflight_requests",
			Help: "In-flight HTTP requests",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.ticks, c.transitions, c.failures, c.tickDuration,
		c.displays, c.observers, c.interactions, c.claimFailures, c.temporaries,
		c.httpRequests, c.httpDuration, c.httpInflight,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveTick records one reconciliation pass.
func (c *Collector) ObserveTick(s hologram.TickStats) {
	c.ticks.Inc()
	c.transitions.WithLabelValues("show").Add(float64(s.Shown))
	c.transitions.WithLabelValues("hide").Add(float64(s.Hidden))
	c.failures.Add(float64(s.Failed))
	c.tickDuration.Observe(s.Duration.Seconds())
	c.displays.Set(float64(s.Displays))
	c.observers.Set(float64(s.Observers))
}

// ObserveDispatch records one interaction event.
func (c *Collector) ObserveDispatch(r hologram.DispatchResult) {
	outcome := "unclaimed"
	switch {
	case r.Debounced:
		outcome = "debounced"
	case r.Handled:
		outcome = "handled"
	}
	c.interactions.WithLabelValues(string(r.Kind), outcome).Inc()
	c.claimFailures.Add(float64(r.Failed))
}

// ObserveTemporary records the number of live temporary lines.
func (c *Collector) ObserveTemporary(active int) {
	c.temporaries.Set(float64(active))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := sr.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	return h.Hijack()
}

// Middleware instruments requests, labelled by chi route pattern to keep
// cardinality bounded.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		c.httpInflight.Inc()
		next.ServeHTTP(sr, r)
		c.httpInflight.Dec()

		// The route pattern is only known once chi has routed the request.
		path := routePatternOrPath(r)
		status := strconv.Itoa(sr.status)
		c.httpRequests.WithLabelValues(path, r.Method, status).Inc()
		c.httpDuration.WithLabelValues(path, r.Method, status).Observe(time.Since(start).Seconds())
	})
}

func routePatternOrPath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
