package ml

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DriftDetector watches scaled numerical features at serving time. Scaled
// values outside [0,1] mean the applicant lies outside the training range,
// where the model extrapolates. The detector raises an alert for a column
// when the share of such values in its recent window exceeds the threshold.
type DriftDetector struct {
	mu             sync.RWMutex
	windowSize     int
	alertThreshold float64
	alertCooldown  time.Duration
	windows        map[string]*featureWindow
	lastAlert      map[string]time.Time
}

type featureWindow struct {
	samples []float64
	next    int
	full    bool
	total   int64
}

func (w *featureWindow) add(v float64) {
	w.total++
	if !w.full {
		w.samples = append(w.samples, v)
		if len(w.samples) == cap(w.samples) {
			w.full = true
		}
		return
	}
	w.samples[w.next] = v
	w.next = (w.next + 1) % len(w.samples)
}

// FeatureDistribution summarises the recent window of one column.
type FeatureDistribution struct {
	Mean          float64 `json:"mean"`
	StandardDev   float64 `json:"standard_dev"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	Median        float64 `json:"median"`
	OutOfRange    float64 `json:"out_of_range"`
	WindowSamples int     `json:"window_samples"`
	SampleCount   int64   `json:"sample_count"`
}

// DriftAlert reports a column whose recent values leave the training range
// too often.
type DriftAlert struct {
	Timestamp   time.Time `json:"timestamp"`
	FeatureName string    `json:"feature_name"`
	OutOfRange  float64   `json:"out_of_range"`
	Threshold   float64   `json:"threshold"`
	Severity    string    `json:"severity"`
}

// DriftDetectionConfig configures drift detection
type DriftDetectionConfig struct {
	WindowSize     int           `yaml:"window_size"`
	AlertThreshold float64       `yaml:"alert_threshold"`
	AlertCooldown  time.Duration `yaml:"alert_cooldown"`
}

// NewDriftDetector creates a detector for the given columns.
func NewDriftDetector(columns []string, config DriftDetectionConfig) *DriftDetector {
	dd := &DriftDetector{
		windowSize:     config.WindowSize,
		alertThreshold: config.AlertThreshold,
		alertCooldown:  config.AlertCooldown,
		windows:        make(map[string]*featureWindow, len(columns)),
		lastAlert:      make(map[string]time.Time),
	}
	if dd.windowSize <= 0 {
		dd.windowSize = 1000
	}
	if dd.alertThreshold <= 0 {
		dd.alertThreshold = 0.1
	}
	if dd.alertCooldown == 0 {
		dd.alertCooldown = time.Hour
	}
	for _, c := range columns {
		dd.windows[c] = &featureWindow{samples: make([]float64, 0, dd.windowSize)}
	}
	return dd
}

// Observe records scaled values of one column. Unknown columns are ignored.
func (dd *DriftDetector) Observe(column string, values ...float64) {
	dd.mu.Lock()
	defer dd.mu.Unlock()
	w, ok := dd.windows[column]
	if !ok {
		return
	}
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		w.add(v)
	}
}

// Status returns the distribution of every watched column.
func (dd *DriftDetector) Status() map[string]FeatureDistribution {
	dd.mu.RLock()
	defer dd.mu.RUnlock()
	out := make(map[string]FeatureDistribution, len(dd.windows))
	for name, w := range dd.windows {
		out[name] = summarize(w)
	}
	return out
}

// DetectDrift returns alerts for columns over the threshold, at most one per
// column per cooldown period.
func (dd *DriftDetector) DetectDrift() []DriftAlert {
	dd.mu.Lock()
	defer dd.mu.Unlock()

	now := time.Now()
	var alerts []DriftAlert
	names := make([]string, 0, len(dd.windows))
	for name := range dd.windows {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dist := summarize(dd.windows[name])
		if dist.WindowSamples == 0 || dist.OutOfRange <= dd.alertThreshold {
			continue
		}
		if last, ok := dd.lastAlert[name]; ok && now.Sub(last) < dd.alertCooldown {
			continue
		}
		severity := "medium"
		if dist.OutOfRange > 2*dd.alertThreshold {
			severity = "high"
		}
		alert := DriftAlert{
			Timestamp:   now,
			FeatureName: name,
			OutOfRange:  dist.OutOfRange,
			Threshold:   dd.alertThreshold,
			Severity:    severity,
		}
		dd.lastAlert[name] = now
		alerts = append(alerts, alert)

		log.Warn().
			Str("feature", name).
			Float64("out_of_range", dist.OutOfRange).
			Str("severity", severity).
			Msg("Serving data outside the training range")
	}
	return alerts
}

// Reset clears all windows and alert history.
func (dd *DriftDetector) Reset() {
	dd.mu.Lock()
	defer dd.mu.Unlock()
	for name := range dd.windows {
		dd.windows[name] = &featureWindow{samples: make([]float64, 0, dd.windowSize)}
	}
	dd.lastAlert = make(map[string]time.Time)
}

func summarize(w *featureWindow) FeatureDistribution {
	n := len(w.samples)
	dist := FeatureDistribution{WindowSamples: n, SampleCount: w.total}
	if n == 0 {
		return dist
	}
	sorted := append([]float64(nil), w.samples...)
	sort.Float64s(sorted)

	var sum, outside float64
	for _, v := range sorted {
		sum += v
		if v < 0 || v > 1 {
			outside++
		}
	}
	dist.Mean = sum / float64(n)
	var sq float64
	for _, v := range sorted {
		sq += (v - dist.Mean) * (v - dist.Mean)
	}
	dist.StandardDev = math.Sqrt(sq / float64(n))
	dist.Min = sorted[0]
	dist.Max = sorted[n-1]
	if n%2 == 0 {
		dist.Median = (sorted[n/2-1] + sorted[n/2]) / 2
	} else {
		dist.Median = sorted[n/2]
	}
	dist.OutOfRange = outside / float64(n)
	return dist
}
