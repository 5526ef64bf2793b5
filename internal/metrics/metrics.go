// Package metrics exposes the engine's Prometheus collectors: one struct
// holding every metric, registered once at construction, with a
// promhttp.Handler for the /metrics endpoint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric the engine records, grouped by the concern
// each one observes.
type Registry struct {
	WebhookIngested      *prometheus.CounterVec
	NormalizerRejections *prometheus.CounterVec
	StorePuts            *prometheus.CounterVec
	StoreExpires         *prometheus.CounterVec
	ProviderCalls        *prometheus.CounterVec
	GateOutcomes         *prometheus.CounterVec
	DecisionOutcomes     *prometheus.CounterVec
	DecisionDuration     prometheus.Histogram
}

// NewRegistry builds and registers every collector against reg. Pass
// prometheus.NewRegistry() in tests to avoid collisions with the global
// default registry across test binaries.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		WebhookIngested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradingengine_webhook_ingested_total",
				Help: "Total webhook payloads ingested, by source.",
			},
			[]string{"source"},
		),
		NormalizerRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradingengine_normalizer_rejections_total",
				Help: "Total payloads rejected by the normalizer, by error code.",
			},
			[]string{"code"},
		),
		StorePuts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradingengine_store_puts_total",
				Help: "Total successful store writes, by store.",
			},
			[]string{"store"},
		),
		StoreExpires: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradingengine_store_expires_total",
				Help: "Total entries found expired on read, by store.",
			},
			[]string{"store"},
		),
		ProviderCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradingengine_provider_calls_total",
				Help: "Total market data provider calls, by provider and outcome source.",
			},
			[]string{"provider", "source"},
		),
		GateOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradingengine_gate_outcomes_total",
				Help: "Total gate evaluations, by gate name and pass/fail.",
			},
			[]string{"gate", "passed"},
		),
		DecisionOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradingengine_decision_outcomes_total",
				Help: "Total decisions emitted, by decision type.",
			},
			[]string{"decision"},
		),
		DecisionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tradingengine_decision_duration_seconds",
				Help:    "Wall-clock duration of one Decide call.",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 1.5, 2.0, 3.0, 5.0},
			},
		),
	}

	reg.MustRegister(
		r.WebhookIngested,
		r.NormalizerRejections,
		r.StorePuts,
		r.StoreExpires,
		r.ProviderCalls,
		r.GateOutcomes,
		r.DecisionOutcomes,
		r.DecisionDuration,
	)

	return r
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordGateResults records one outcome per gate from a gate pipeline run.
func (r *Registry) RecordGateResults(gateName string, passed bool) {
	r.GateOutcomes.WithLabelValues(gateName, boolLabel(passed)).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
