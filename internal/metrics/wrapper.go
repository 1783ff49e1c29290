package metrics

import "github.com/prometheus/client_golang/prometheus"

// Histogram is the observation side of a Prometheus histogram.
type Histogram interface {
	Observe(float64)
}

// Wrapper adapts Metrics to the narrow interface the predictor records
// through.
type Wrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

func (w *Wrapper) PredictionsInc(label string) {
	w.m.Predictions.WithLabelValues(label).Inc()
}

func (w *Wrapper) PredictionErrorsInc(kind string) {
	w.m.PredictionErrors.WithLabelValues(kind).Inc()
}

func (w *Wrapper) LatencyObserve(seconds float64) {
	w.m.PredictionLatency.Observe(seconds)
}

func (w *Wrapper) ApprovalProbabilityObserve(p float64) {
	w.m.ApprovalProbability.Observe(p)
}

func (w *Wrapper) BatchRowsObserve(n int) {
	w.m.BatchRows.Observe(float64(n))
}

func (w *Wrapper) ArtifactAgeSet(seconds float64) {
	w.m.ArtifactAge.Set(seconds)
}

// RequestDuration returns the duration histogram of one HTTP path.
func (w *Wrapper) RequestDuration(path string) Histogram {
	return &HistogramWrapper{w.m.HTTPRequestDuration.WithLabelValues(path)}
}

// RequestsInc counts one HTTP response.
func (w *Wrapper) RequestsInc(path, code string) {
	w.m.HTTPRequests.WithLabelValues(path, code).Inc()
}

type HistogramWrapper struct {
	h prometheus.Observer
}

func (hw *HistogramWrapper) Observe(v float64) {
	hw.h.Observe(v)
}
