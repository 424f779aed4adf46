// Package metrics exposes run progress as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/screwyprof/eligibility/eligibility"
)

// Sink implements eligibility.Sink by updating collectors
type Sink struct {
	outcomes *prometheus.CounterVec
	eligible prometheus.Counter
	attempts prometheus.Histogram
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Sink {
	factory := promauto.With(reg)

	return &Sink{
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "eligibility_outcomes_total",
			Help: "The total number of checked addresses by status",
		}, []string{"status"}),

		eligible: factory.NewCounter(prometheus.CounterOpts{
			Name: "eligibility_eligible_total",
			Help: "The total number of addresses found eligible",
		}),

		attempts: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "eligibility_fetch_attempts",
			Help:    "Attempts spent per address",
			Buckets: prometheus.LinearBuckets(1, 1, 5), // 1 to 5 attempts
		}),
	}
}

// Append records the outcome
func (s *Sink) Append(_ context.Context, outcome eligibility.Outcome) error {
	s.outcomes.WithLabelValues(string(outcome.Record.Status)).Inc()
	if outcome.Record.Eligible {
		s.eligible.Inc()
	}
	s.attempts.Observe(float64(outcome.Attempts))
	return nil
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
