// Package ml scores loan applicants: it replays the fitted preprocessing of
// a loaded artifact bundle and runs the trained classifier on the result.
//
// A Predictor is built once from a bundle and shared; it keeps no state
// between calls apart from the bundle itself.
package ml

import (
	"loanscore/internal/loan"
	"loanscore/internal/model"
	"loanscore/internal/preprocess"
)

// PredictorInterface is what hosts (the HTTP server, the CLI) need from a
// predictor.
type PredictorInterface interface {
	// Predict returns the decision of every row.
	Predict(in preprocess.Input) ([]loan.Decision, error)

	// PredictProba returns (P(reject), P(approve)) for every row.
	PredictProba(in preprocess.Input) ([]model.Probabilities, error)

	// PredictLoanStatus returns decisions and probabilities from a single
	// preprocessing run.
	PredictLoanStatus(in preprocess.Input) (*Result, error)
}
