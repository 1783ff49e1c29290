// Package model holds the portable forms of the trained loan classifier.
// A model maps a feature matrix to probability pairs (P(reject), P(approve));
// the positive class, 1, means the loan is approved.
package model

import (
	"fmt"
	"math"
)

// Probabilities is one (P(reject), P(approve)) pair.
type Probabilities [2]float64

// Reject returns P(class 0).
func (p Probabilities) Reject() float64 { return p[0] }

// Approve returns P(class 1).
func (p Probabilities) Approve() float64 { return p[1] }

// Class returns 1 when approval is strictly more likely than rejection.
func (p Probabilities) Class() int {
	if p[1] > p[0] {
		return 1
	}
	return 0
}

// Classifier is a fitted binary classifier.
type Classifier interface {
	// Kind names the serialized form.
	Kind() string
	// Features returns the expected feature order, or nil if the model was
	// fitted without names.
	Features() []string
	// NumFeatures returns the width of a feature row.
	NumFeatures() int
	// PredictProba scores every row of x.
	PredictProba(x [][]float64) ([]Probabilities, error)
}

// Predict returns the class of every row of x.
func Predict(c Classifier, x [][]float64) ([]int, error) {
	probs, err := c.PredictProba(x)
	if err != nil {
		return nil, err
	}
	return Classes(probs), nil
}

// Classes maps probability pairs to classes.
func Classes(probs []Probabilities) []int {
	out := make([]int, len(probs))
	for i, p := range probs {
		out[i] = p.Class()
	}
	return out
}

func checkWidth(x [][]float64, n int) error {
	for i, row := range x {
		if len(row) != n {
			return fmt.Errorf("row %d has %d features, model expects %d", i, len(row), n)
		}
	}
	return nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func pair(approve float64) Probabilities {
	return Probabilities{1 - approve, approve}
}
