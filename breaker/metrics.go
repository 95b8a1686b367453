package breaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes breaker state to Prometheus. Safe for concurrent use.
type Metrics struct {
	state *prometheus.GaugeVec
	trips *prometheus.CounterVec
}

// NewMetrics registers the collectors on the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry registers the collectors on the supplied registerer,
// letting tests keep their own registry.
func NewMetricsWithRegistry(registry prometheus.Registerer) *Metrics {
	return &Metrics{
		state: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "smartlibrary_breaker_state",
				Help: "Current breaker state per dependency (0=closed, 1=open, 2=half-open)",
			},
			[]string{"dependency"},
		),
		trips: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartlibrary_breaker_trips_total",
				Help: "Total number of transitions to the open state",
			},
			[]string{"dependency"},
		),
	}
}

func (m *Metrics) recordState(dependency string, s State) {
	var v float64
	switch s {
	case StateOpen:
		v = 1
		m.trips.WithLabelValues(dependency).Inc()
	case StateHalfOpen:
		v = 2
	}

	m.state.WithLabelValues(dependency).Set(v)
}
