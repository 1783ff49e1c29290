package ml

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu            sync.Mutex
	predictions   map[string]int
	errors        map[string]int
	latencyCount  int
	approvalProbs []float64
	batchRows     []int
	artifactAge   float64
}

func (m *MockMetrics) PredictionsInc(label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.predictions == nil {
		m.predictions = make(map[string]int)
	}
	m.predictions[label]++
}

func (m *MockMetrics) PredictionErrorsInc(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errors == nil {
		m.errors = make(map[string]int)
	}
	m.errors[kind]++
}

func (m *MockMetrics) LatencyObserve(float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencyCount++
}

func (m *MockMetrics) ApprovalProbabilityObserve(p float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.approvalProbs = append(m.approvalProbs, p)
}

func (m *MockMetrics) BatchRowsObserve(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchRows = append(m.batchRows, n)
}

func (m *MockMetrics) ArtifactAgeSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifactAge = v
}

func (m *MockMetrics) Predictions(label string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictions[label]
}

func (m *MockMetrics) Errors(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func (m *MockMetrics) Latencies() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latencyCount
}
