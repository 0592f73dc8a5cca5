package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	platformmetrics "securitysvc/internal/platform/metrics"
)

// Metrics provides observability for the security type module.
type Metrics struct {
	Mutations        *prometheus.CounterVec
	VersionConflicts prometheus.Counter
	CacheLookups     *prometheus.CounterVec
}

// New registers (or reuses) the security type collectors on reg.
func New(reg *platformmetrics.Registry) *Metrics {
	return &Metrics{
		Mutations: reg.CounterVec(prometheus.CounterOpts{
			Name: "security_type_mutations_total",
			Help: "Successful security type mutations by operation",
		}, "operation"),
		VersionConflicts: reg.Counter(prometheus.CounterOpts{
			Name: "security_type_version_conflicts_total",
			Help: "Security type updates or deletes rejected for a stale version",
		}),
		CacheLookups: reg.CounterVec(prometheus.CounterOpts{
			Name: "security_type_cache_lookups_total",
			Help: "Security type cache lookups by result (hit, miss, error, bypass) and fills skipped after a concurrent write (stale)",
		}, "result"),
	}
}

// IncrementMutation records a successful create, update or delete.
func (m *Metrics) IncrementMutation(operation string) {
	m.Mutations.WithLabelValues(operation).Inc()
}

// IncrementVersionConflict records a rejected stale write.
func (m *Metrics) IncrementVersionConflict() {
	m.VersionConflicts.Inc()
}

// ObserveCacheLookups records n cache lookups with the given result.
func (m *Metrics) ObserveCacheLookups(result string, n int) {
	if n > 0 {
		m.CacheLookups.WithLabelValues(result).Add(float64(n))
	}
}
