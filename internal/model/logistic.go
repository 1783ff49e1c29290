package model

import "fmt"

// KindLogisticRegression is the serialized kind of LogisticRegression.
const KindLogisticRegression = "logistic_regression"

// LogisticRegression scores P(approve) = sigmoid(coef·x + intercept).
type LogisticRegression struct {
	Coef         []float64 `json:"coef"`
	Intercept    float64   `json:"intercept"`
	FeatureNames []string  `json:"feature_names,omitempty"`
}

func (m *LogisticRegression) Kind() string { return KindLogisticRegression }

func (m *LogisticRegression) Features() []string { return m.FeatureNames }

func (m *LogisticRegression) NumFeatures() int { return len(m.Coef) }

// Validate checks that the coefficients match the feature names.
func (m *LogisticRegression) Validate() error {
	if len(m.Coef) == 0 {
		return fmt.Errorf("logistic regression has no coefficients")
	}
	if len(m.FeatureNames) > 0 && len(m.FeatureNames) != len(m.Coef) {
		return fmt.Errorf("logistic regression has %d coefficients but %d feature names", len(m.Coef), len(m.FeatureNames))
	}
	return nil
}

// DecisionFunction returns the raw logit of every row.
func (m *LogisticRegression) DecisionFunction(x [][]float64) ([]float64, error) {
	if err := checkWidth(x, len(m.Coef)); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, row := range x {
		z := m.Intercept
		for j, v := range row {
			z += m.Coef[j] * v
		}
		out[i] = z
	}
	return out, nil
}

func (m *LogisticRegression) PredictProba(x [][]float64) ([]Probabilities, error) {
	logits, err := m.DecisionFunction(x)
	if err != nil {
		return nil, err
	}
	out := make([]Probabilities, len(logits))
	for i, z := range logits {
		out[i] = pair(sigmoid(z))
	}
	return out, nil
}
