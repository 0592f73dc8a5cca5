package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	platformmetrics "securitysvc/internal/platform/metrics"
)

// Metrics provides observability for the security module.
type Metrics struct {
	Mutations        *prometheus.CounterVec
	VersionConflicts prometheus.Counter
	InvalidRefs      prometheus.Counter
	Searches         *prometheus.CounterVec
	SearchDuration   *prometheus.HistogramVec
}

func New(reg *platformmetrics.Registry) *Metrics {
	return &Metrics{
		Mutations: reg.CounterVec(prometheus.CounterOpts{
			Name: "security_mutations_total",
			Help: "Successful security mutations by operation",
		}, "operation"),
		VersionConflicts: reg.Counter(prometheus.CounterOpts{
			Name: "security_version_conflicts_total",
			Help: "Security updates or deletes rejected for a stale version",
		}),
		InvalidRefs: reg.Counter(prometheus.CounterOpts{
			Name: "security_invalid_type_references_total",
			Help: "Security reads or writes that referenced a missing security type",
		}),
		Searches: reg.CounterVec(prometheus.CounterOpts{
			Name: "security_searches_total",
			Help: "Paginated security searches by ticker match mode",
		}, "mode"),
		SearchDuration: reg.HistogramVec(prometheus.HistogramOpts{
			Name:    "security_search_duration_seconds",
			Help:    "Paginated security search latency by ticker match mode",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, "mode"),
	}
}

func (m *Metrics) IncrementMutation(operation string) {
	m.Mutations.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncrementVersionConflict() {
	m.VersionConflicts.Inc()
}

func (m *Metrics) IncrementInvalidReference() {
	m.InvalidRefs.Inc()
}

// ObserveSearch records one completed search.
func (m *Metrics) ObserveSearch(mode string, d time.Duration) {
	m.Searches.WithLabelValues(mode).Inc()
	m.SearchDuration.WithLabelValues(mode).Observe(d.Seconds())
}
