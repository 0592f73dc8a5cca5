// Package metrics owns the Prometheus registry shared by every module.
//
// Collectors are registered get-or-create: asking twice for the same metric
// returns the collector registered first, so constructing a module's metrics
// more than once (tests, multiple routers) never panics on duplicate registration.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "security_service"

// Registry wraps a Prometheus registerer with idempotent registration.
type Registry struct {
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
}

// Default is the process-wide registry backed by the Prometheus defaults.
var Default = &Registry{
	registerer: prometheus.DefaultRegisterer,
	gatherer:   prometheus.DefaultGatherer,
}

// NewRegistry returns a registry over a fresh prometheus.Registry.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	return &Registry{registerer: reg, gatherer: reg}
}

// Counter returns the counter described by opts, registering it on first use.
func (r *Registry) Counter(opts prometheus.CounterOpts) prometheus.Counter {
	return getOrRegister(r.registerer, prometheus.NewCounter(withNamespace(opts)))
}

// CounterVec returns the counter vector described by opts.
func (r *Registry) CounterVec(opts prometheus.CounterOpts, labels ...string) *prometheus.CounterVec {
	return getOrRegister(r.registerer, prometheus.NewCounterVec(withNamespace(opts), labels))
}

// HistogramVec returns the histogram vector described by opts.
func (r *Registry) HistogramVec(opts prometheus.HistogramOpts, labels ...string) *prometheus.HistogramVec {
	if opts.Namespace == "" {
		opts.Namespace = Namespace
	}
	return getOrRegister(r.registerer, prometheus.NewHistogramVec(opts, labels))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying gatherer for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.gatherer
}

func withNamespace(opts prometheus.CounterOpts) prometheus.CounterOpts {
	if opts.Namespace == "" {
		opts.Namespace = Namespace
	}
	return opts
}

func getOrRegister[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// HTTPMetrics records request latency per route.
type HTTPMetrics struct {
	RequestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP collectors on reg.
func NewHTTPMetrics(reg *Registry) *HTTPMetrics {
	return &HTTPMetrics{
		RequestDuration: reg.HistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status",
			Buckets: prometheus.DefBuckets,
		}, "method", "route", "status"),
	}
}

// ObserveRequest records the latency of one request.
func (m *HTTPMetrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
