package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/complyops/sentinel/internal/models"
)

// Metrics exports engine activity as prometheus series. It plugs into the
// engine as its observer so the core stays free of telemetry imports.
type Metrics struct {
	registry *prometheus.Registry

	findingsIngested   *prometheus.CounterVec
	findingsDuplicates prometheus.Counter
	overallRisk        prometheus.Gauge
	frameworkRisk      *prometheus.GaugeVec
	reviewsCreated     prometheus.Counter
	reviewsResolved    *prometheus.CounterVec
}

// NewMetrics creates the metric set on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		findingsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_findings_ingested_total",
			Help: "Findings accepted by the engine, by severity.",
		}, []string{"severity"}),
		findingsDuplicates: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_findings_duplicates_total",
			Help: "Findings dropped as duplicates of previously seen IDs.",
		}),
		overallRisk: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_risk_score",
			Help: "Current overall risk score (0-100).",
		}),
		frameworkRisk: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sentinel_framework_risk_score",
			Help: "Current per-framework risk score (0-100).",
		}, []string{"framework"}),
		reviewsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_reviews_created_total",
			Help: "Human-in-the-loop reviews created by the trigger policy.",
		}),
		reviewsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_reviews_resolved_total",
			Help: "Reviews resolved, by terminal status.",
		}, []string{"status"}),
	}
}

// Handler serves the metric set in prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IngestCompleted implements engine.Observer.
func (m *Metrics) IngestCompleted(accepted []models.Finding, duplicates int, score models.RiskScore) {
	for i := range accepted {
		m.findingsIngested.WithLabelValues(string(accepted[i].Severity)).Inc()
	}
	m.findingsDuplicates.Add(float64(duplicates))
	m.overallRisk.Set(score.OverallScore)
	for fw, v := range score.FrameworkScores {
		m.frameworkRisk.WithLabelValues(string(fw)).Set(v)
	}
}

// ReviewCreated implements engine.Observer.
func (m *Metrics) ReviewCreated(models.HITLReview) {
	m.reviewsCreated.Inc()
}

// ReviewResolved implements engine.Observer.
func (m *Metrics) ReviewResolved(review models.HITLReview) {
	m.reviewsResolved.WithLabelValues(string(review.Status)).Inc()
}
