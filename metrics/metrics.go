package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	things "github.com/goliatone/go-things"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	DecisionAllowed = "allowed"
	DecisionDenied  = "denied"
)

// Metrics collects authorization decisions and HTTP traffic on a private
// registry.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	decisions       *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var _ things.DecisionObserver = (*Metrics)(nil)

// New initializes the registry and the collectors
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "things_authorization_decisions_total",
			Help: "Authorization decisions taken by the thing repository gate.",
		}, []string{"operation", "decision"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "things_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "things_http_request_duration_seconds",
			Help:    "HTTP request duration by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	registry.MustRegister(m.decisions, m.requestsTotal, m.requestDuration)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Observe implements things.DecisionObserver
func (m *Metrics) Observe(_ context.Context, op things.Operation, allowed bool) {
	if m == nil {
		return
	}
	decision := DecisionDenied
	if allowed {
		decision = DecisionAllowed
	}
	m.decisions.WithLabelValues(string(op), decision).Inc()
}

// Decisions returns the decision counter for op
func (m *Metrics) Decisions(op things.Operation, decision string) prometheus.Counter {
	return m.decisions.WithLabelValues(string(op), decision)
}

// Handler returns the http.Handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records every request. Errors returned down the chain are
// handed to the app error handler first so the recorded code is the one the
// client sees.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}

		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		route := c.Route().Path
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(c.Response().StatusCode())).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())

		return nil
	}
}

// Registerer exposes the registry for custom collectors
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// Register adds collectors to reg, ignoring the ones already registered
func Register(reg prometheus.Registerer, cs ...prometheus.Collector) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// RegisterRuntime adds the Go runtime and process collectors to the registry
func (m *Metrics) RegisterRuntime() error {
	return Register(m.Registerer(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}
