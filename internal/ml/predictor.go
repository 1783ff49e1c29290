package ml

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"loanscore/internal/artifact"
	"loanscore/internal/loan"
	"loanscore/internal/model"
	"loanscore/internal/preprocess"
)

// ErrInference wraps failures of the classifier itself.
var ErrInference = errors.New("model inference failed")

// MetricsInterface defines metrics methods needed by the predictor
type MetricsInterface interface {
	PredictionsInc(label string)
	PredictionErrorsInc(kind string)
	LatencyObserve(seconds float64)
	ApprovalProbabilityObserve(p float64)
	BatchRowsObserve(n int)
	ArtifactAgeSet(seconds float64)
}

// Result is the outcome of scoring a batch. Labels[i] and Probabilities[i]
// belong to input row i.
type Result struct {
	Labels        []loan.Decision       `json:"labels"`
	Probabilities []model.Probabilities `json:"probabilities"`
}

type Predictor struct {
	bundle    *artifact.Bundle
	pipeline  *preprocess.Pipeline
	metrics   MetricsInterface
	validator *loan.FormValidator
	drift     *DriftDetector
}

var _ PredictorInterface = (*Predictor)(nil)

// Option configures a Predictor.
type Option func(*Predictor)

// WithMetrics records every call on m.
func WithMetrics(m MetricsInterface) Option {
	return func(p *Predictor) { p.metrics = m }
}

// WithFormValidator checks each row against the interactive form domains
// before preprocessing.
func WithFormValidator(v *loan.FormValidator) Option {
	return func(p *Predictor) { p.validator = v }
}

// WithDriftDetector feeds the scaled numerical columns of every scored batch
// to d.
func WithDriftDetector(d *DriftDetector) Option {
	return func(p *Predictor) { p.drift = d }
}

// New creates a predictor over a loaded bundle.
func New(bundle *artifact.Bundle, opts ...Option) (*Predictor, error) {
	if bundle == nil || bundle.Pipeline() == nil || bundle.Model == nil {
		return nil, fmt.Errorf("%w: bundle is not loaded", artifact.ErrArtifactNotFound)
	}
	p := &Predictor{bundle: bundle, pipeline: bundle.Pipeline()}
	for _, opt := range opts {
		opt(p)
	}

	if p.metrics != nil && !bundle.Info.ModelModTime.IsZero() {
		p.metrics.ArtifactAgeSet(time.Since(bundle.Info.ModelModTime).Seconds())
	}
	return p, nil
}

// Bundle returns the artifacts the predictor scores with.
func (p *Predictor) Bundle() *artifact.Bundle { return p.bundle }

// Predict preprocesses the input and returns one decision per row.
func (p *Predictor) Predict(in preprocess.Input) ([]loan.Decision, error) {
	probs, err := p.score(in)
	if err != nil {
		return nil, err
	}
	return decisions(probs), nil
}

// PredictProba preprocesses the input and returns one probability pair per
// row. It does not share work with Predict.
func (p *Predictor) PredictProba(in preprocess.Input) ([]model.Probabilities, error) {
	return p.score(in)
}

// PredictLoanStatus scores the input once and returns both decisions and
// probabilities.
func (p *Predictor) PredictLoanStatus(in preprocess.Input) (*Result, error) {
	probs, err := p.score(in)
	if err != nil {
		return nil, err
	}
	return &Result{Labels: decisions(probs), Probabilities: probs}, nil
}

func (p *Predictor) score(in preprocess.Input) ([]model.Probabilities, error) {
	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.LatencyObserve(time.Since(start).Seconds())
		}
	}()

	probs, err := p.run(in)
	if err != nil {
		if p.metrics != nil {
			p.metrics.PredictionErrorsInc(ErrorKind(err))
		}
		log.Debug().Err(err).Str("kind", ErrorKind(err)).Msg("Prediction failed")
		return nil, err
	}

	if p.metrics != nil {
		p.metrics.BatchRowsObserve(len(probs))
		for _, pr := range probs {
			p.metrics.PredictionsInc(string(loan.DecisionFor(pr.Class())))
			p.metrics.ApprovalProbabilityObserve(pr.Approve())
		}
	}
	return probs, nil
}

func (p *Predictor) run(in preprocess.Input) ([]model.Probabilities, error) {
	batch := preprocess.AsBatch(in)
	if len(batch) == 0 {
		return nil, preprocess.ErrEmptyInput
	}
	if p.validator != nil {
		for i, rec := range batch {
			if err := p.validator.Validate(i, rec); err != nil {
				return nil, err
			}
		}
	}

	f, err := p.pipeline.Run(batch)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	x, err := f.Matrix(p.bundle.FeatureNames())
	if err != nil {
		return nil, fmt.Errorf("align features: %w", err)
	}
	if len(x) > 0 && len(x[0]) != p.bundle.Model.NumFeatures() {
		return nil, fmt.Errorf("align features: %w", &preprocess.SchemaMismatchError{
			Row:    -1,
			Reason: fmt.Sprintf("preprocessing produced %d features, model expects %d", len(x[0]), p.bundle.Model.NumFeatures()),
		})
	}
	probs, err := p.bundle.Model.PredictProba(x)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	for i, pr := range probs {
		if math.IsNaN(pr.Approve()) || math.IsNaN(pr.Reject()) {
			return nil, fmt.Errorf("%w: row %d has no valid probability", ErrInference, i)
		}
	}

	if p.drift != nil {
		for _, col := range p.pipeline.Roles().Numerical {
			cells, _ := f.Column(col)
			for _, c := range cells {
				p.drift.Observe(col, c.Num)
			}
		}
	}
	return probs, nil
}

func decisions(probs []model.Probabilities) []loan.Decision {
	out := make([]loan.Decision, len(probs))
	for i, pr := range probs {
		out[i] = loan.DecisionFor(pr.Class())
	}
	return out
}
