// Package metrics provides Prometheus metrics for the loan scoring service.
// It covers predictions and their outcomes, preprocessing and artifact
// errors, latency, artifact age and the HTTP surface, all exposed on the
// /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics of the service.
type Metrics struct {
	// Prediction metrics
	Predictions         *prometheus.CounterVec // Rows scored, by decision label
	PredictionErrors    *prometheus.CounterVec // Failed prediction calls, by error kind
	PredictionLatency   prometheus.Histogram   // Preprocess plus inference latency per call
	ApprovalProbability prometheus.Histogram   // Distribution of P(approve)
	BatchRows           prometheus.Histogram   // Rows per prediction call
	ArtifactAge         prometheus.Gauge       // Age of the loaded model file in seconds

	// HTTP metrics
	HTTPRequests        *prometheus.CounterVec   // Requests by path and status code
	HTTPRequestDuration *prometheus.HistogramVec // Request duration by path

	gatherer prometheus.Gatherer
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics on a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	m := &Metrics{
		Predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loan_predictions_total",
			Help: "Total number of scored applicant rows by decision",
		}, []string{"label"}),
		PredictionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loan_prediction_errors_total",
			Help: "Total number of failed prediction calls by error kind",
		}, []string{"kind"}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "loan_prediction_latency_seconds",
			Help:    "Preprocessing plus inference latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		ApprovalProbability: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "loan_approval_probability",
			Help:    "Distribution of predicted approval probabilities",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		BatchRows: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "loan_batch_rows",
			Help:    "Number of applicant rows per prediction call",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		ArtifactAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "loan_artifact_age_seconds",
			Help: "Age of the loaded model artifact in seconds",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by path and status code",
		}, []string{"path", "code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
	}
	if g, ok := registerer.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// GetErrorRate returns failed prediction calls divided by scored rows plus
// failed calls, or 0 before anything was recorded.
func (m *Metrics) GetErrorRate() float64 {
	var scored, failed float64

	metricFamilies, err := m.gatherer.Gather()
	if err != nil {
		return 0
	}
	for _, mf := range metricFamilies {
		switch mf.GetName() {
		case "loan_predictions_total":
			for _, metric := range mf.GetMetric() {
				scored += metric.GetCounter().GetValue()
			}
		case "loan_prediction_errors_total":
			for _, metric := range mf.GetMetric() {
				failed += metric.GetCounter().GetValue()
			}
		}
	}

	if scored+failed == 0 {
		return 0
	}
	return failed / (scored + failed)
}
