package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
)

const outcomeOK = "ok"

type Metrics struct {
	Operations  *prometheus.CounterVec
	Transitions *prometheus.CounterVec
	Latency     *prometheus.HistogramVec
}

// New registers the service metrics with reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Operations handled, by name and outcome (ok or the error kind)",
			},
			[]string{"operation", "outcome"},
		),
		Transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "vote_transitions_total",
				Help:      "Committed votes by transition (cast, changed, confirmed)",
			},
			[]string{"transition"},
		),
		Latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Histogram of operation latency including storage",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"operation"},
		),
	}
}

// Observe records one finished operation.
func (m *Metrics) Observe(operation string, start time.Time, err error) {
	outcome := outcomeOK
	if err != nil {
		outcome = string(domain.KindOf(err))
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.Latency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) Transition(kind domain.TransitionKind) {
	m.Transitions.WithLabelValues(string(kind)).Inc()
}
