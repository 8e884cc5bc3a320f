// Package metrics provides Prometheus metrics collection for the KOI
// classifier service. It covers single and batch prediction traffic,
// validation and decode failures, prediction latency, and the age of the
// loaded model artifact, exposed via the Prometheus metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the classifier service.
type Metrics struct {
	// Prediction traffic
	Predictions        prometheus.Counter   // Total predictions served
	PredictionFailures prometheus.Counter   // Predictions that returned an error
	PredictionLatency  prometheus.Histogram // End-to-end prediction latency in seconds
	PredictionScores   prometheus.Histogram // Distribution of predicted probabilities

	// Batch traffic
	BatchRequests      prometheus.Counter // Batch uploads processed
	BatchRecords       prometheus.Counter // Records decoded across all batches
	BatchRecordErrors  prometheus.Counter // Batch records that failed validation or inference
	DecodeFailures     prometheus.Counter // Uploads rejected before record processing
	ValidationFailures prometheus.Counter // Single-record requests rejected by validation

	// Model state
	ModelAge prometheus.Gauge // Age of the loaded model artifact in seconds
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
// This allows for isolated metric collection in tests without affecting
// the global Prometheus registry.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of predictions served",
		}),
		PredictionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_failures_total",
			Help: "Total number of predictions that returned an error",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "End-to-end prediction latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		PredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_scores",
			Help:    "Distribution of predicted planet probabilities",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		BatchRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "batch_requests_total",
			Help: "Total number of batch uploads processed",
		}),
		BatchRecords: factory.NewCounter(prometheus.CounterOpts{
			Name: "batch_records_total",
			Help: "Total number of records decoded across all batch uploads",
		}),
		BatchRecordErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "batch_record_errors_total",
			Help: "Total number of batch records that failed validation or inference",
		}),
		DecodeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "decode_failures_total",
			Help: "Total number of uploads rejected before record processing",
		}),
		ValidationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "validation_failures_total",
			Help: "Total number of single-record requests rejected by validation",
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_age_seconds",
			Help: "Age of the loaded model artifact in seconds",
		}),
	}
}
