package remote

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for outbound calls. Safe for
// concurrent use.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry registers the collectors on the supplied registerer.
func NewMetricsWithRegistry(registry prometheus.Registerer) *Metrics {
	return &Metrics{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartlibrary_remote_requests_total",
				Help: "Total number of outbound calls by dependency, operation and outcome",
			},
			[]string{"dependency", "operation", "outcome"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smartlibrary_remote_request_duration_seconds",
				Help:    "Duration of outbound calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"dependency", "operation"},
		),
	}
}

func (m *Metrics) record(dependency, operation, outcome string, d time.Duration) {
	m.requestsTotal.WithLabelValues(dependency, operation, outcome).Inc()
	m.requestDuration.WithLabelValues(dependency, operation).Observe(d.Seconds())
}
