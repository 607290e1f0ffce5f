package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	imported    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creditscore_predictions_total",
				Help: "Total number of predictions by model variant and decision",
			},
			[]string{"model", "decision"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creditscore_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		imported: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creditscore_records_imported_total",
				Help: "Total number of dataset records imported",
			},
			[]string{"backend"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "creditscore_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPrediction counts one served prediction.
func (r *Recorder) RecordPrediction(model, decision string) {
	r.predictions.WithLabelValues(model, decision).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordImported counts records written by an import backend.
func (r *Recorder) RecordImported(backend string, n int) {
	r.imported.WithLabelValues(backend).Add(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
