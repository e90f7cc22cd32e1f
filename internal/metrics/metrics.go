// Package metrics holds Prometheus collectors for the recommendation pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ppiont/spendsense/internal/model"
)

// Metrics holds Prometheus collectors for recommendation runs.
type Metrics struct {
	Requests          *prometheus.CounterVec
	RequestLatency    *prometheus.HistogramVec
	PersonaAssigned   *prometheus.CounterVec
	ToneSubstitutions *prometheus.CounterVec
	OffersExcluded    prometheus.Counter
	StrategyFallbacks *prometheus.CounterVec
	CatalogReloads    *prometheus.CounterVec
}

// New registers collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spendsense_recommendation_requests_total",
			Help: "Total recommendation requests, labeled by outcome",
		}, []string{"outcome"}),
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spendsense_recommendation_latency_seconds",
			Help:    "Latency of recommendation requests in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}, []string{"strategy"}),
		PersonaAssigned: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spendsense_persona_assignments_total",
			Help: "Total persona assignments, labeled by persona",
		}, []string{"persona"}),
		ToneSubstitutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spendsense_tone_substitutions_total",
			Help: "Generated text replaced by default text after a tone violation",
		}, []string{"field"}),
		OffersExcluded: factory.NewCounter(prometheus.CounterOpts{
			Name: "spendsense_offers_excluded_total",
			Help: "Offers removed by the eligibility guardrail",
		}),
		StrategyFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spendsense_strategy_fallbacks_total",
			Help: "Strategy calls answered by the template fallback, labeled by operation",
		}, []string{"op"}),
		CatalogReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spendsense_catalog_reloads_total",
			Help: "Catalog reload attempts, labeled by result",
		}, []string{"result"}),
	}
}

// RecordRequest counts a finished request and observes its latency.
func (m *Metrics) RecordRequest(outcome, strategy string, d time.Duration) {
	m.Requests.WithLabelValues(outcome).Inc()
	m.RequestLatency.WithLabelValues(strategy).Observe(d.Seconds())
}

// RecordPersona counts a persona assignment.
func (m *Metrics) RecordPersona(p model.PersonaType) {
	m.PersonaAssigned.WithLabelValues(string(p)).Inc()
}

// RecordToneSubstitution counts a tone-screen replacement.
func (m *Metrics) RecordToneSubstitution(field string) {
	m.ToneSubstitutions.WithLabelValues(field).Inc()
}

// RecordOffersExcluded adds n excluded offers.
func (m *Metrics) RecordOffersExcluded(n int) {
	m.OffersExcluded.Add(float64(n))
}

// RecordFallback counts a strategy fallback. Its signature matches
// strategy.Resilience.OnFallback.
func (m *Metrics) RecordFallback(op string, _ error) {
	m.StrategyFallbacks.WithLabelValues(op).Inc()
}

// RecordCatalogReload counts a reload attempt.
func (m *Metrics) RecordCatalogReload(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.CatalogReloads.WithLabelValues(result).Inc()
}
