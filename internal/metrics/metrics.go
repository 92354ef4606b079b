// Package metrics instruments forward model evaluations with Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fwdopt"

// Evaluation outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// Metrics holds the collectors of one registry. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	evaluations        *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	variables          *prometheus.CounterVec
	modelsSkipped      *prometheus.CounterVec
	runsActive         prometheus.Gauge
}

// New registers the optimizer collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Forward model evaluations by model and outcome.",
		}, []string{"model", "outcome"}),
		evaluationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Wall time of one prepare/evaluate/reduce cycle.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"model"}),
		variables: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variables_total",
			Help:      "Optimized variables by model and final status.",
		}, []string{"model", "status"}),
		modelsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "models_skipped_total",
			Help:      "Models whose adapter could not be resolved.",
		}, []string{"model"}),
		runsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_active",
			Help:      "Optimization runs currently executing.",
		}),
	}
}

// ObserveEvaluation records one objective evaluation.
func (m *Metrics) ObserveEvaluation(model, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(model, outcome).Inc()
	m.evaluationDuration.WithLabelValues(model).Observe(d.Seconds())
}

// ObserveVariable records the final status of one variable.
func (m *Metrics) ObserveVariable(model, status string) {
	if m == nil {
		return
	}
	m.variables.WithLabelValues(model, status).Inc()
}

// ObserveSkippedModel records a model that could not be resolved.
func (m *Metrics) ObserveSkippedModel(model string) {
	if m == nil {
		return
	}
	m.modelsSkipped.WithLabelValues(model).Inc()
}

// RunStarted and RunFinished track concurrently executing runs.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.runsActive.Inc()
}

func (m *Metrics) RunFinished() {
	if m == nil {
		return
	}
	m.runsActive.Dec()
}
