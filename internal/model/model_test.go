package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbabilities_Class(t *testing.T) {
	tests := []struct {
		name string
		p    Probabilities
		want int
	}{
		{"approve", Probabilities{0.2, 0.8}, 1},
		{"reject", Probabilities{0.9, 0.1}, 0},
		{"tie rejects", Probabilities{0.5, 0.5}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.p.Class())
			assert.Equal(t, tc.p[0], tc.p.Reject())
			assert.Equal(t, tc.p[1], tc.p.Approve())
		})
	}
}

func TestLogisticRegression(t *testing.T) {
	m := &LogisticRegression{Coef: []float64{2, -1}, Intercept: 0.5}
	require.NoError(t, m.Validate())

	probs, err := m.PredictProba([][]float64{{0, 0}, {1, 5}, {-0.25, 0}})
	require.NoError(t, err)
	require.Len(t, probs, 3)

	assert.InDelta(t, 1/(1+math.Exp(-0.5)), probs[0].Approve(), 1e-12)
	assert.InDelta(t, 1/(1+math.Exp(2.5)), probs[1].Approve(), 1e-12)
	assert.InDelta(t, 0.5, probs[2].Approve(), 1e-12)
	for _, p := range probs {
		assert.InDelta(t, 1.0, p.Reject()+p.Approve(), 1e-12)
	}

	classes, err := Predict(m, [][]float64{{0, 0}, {1, 5}})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, classes)

	_, err = m.PredictProba([][]float64{{1}})
	assert.Error(t, err)
}

func TestSigmoid_Extremes(t *testing.T) {
	assert.Equal(t, 1.0, sigmoid(1000))
	assert.Equal(t, 0.0, sigmoid(-1000))
	assert.False(t, math.IsNaN(sigmoid(-1000)))
}

// stump splits on feature 0 at t: left leaf l, right leaf r.
func stump(t, l, r float64) Tree {
	return Tree{
		ChildrenLeft:  []int{1, -1, -1},
		ChildrenRight: []int{2, -1, -1},
		Feature:       []int{0, -2, -2},
		Threshold:     []float64{t, -2, -2},
		Value:         []float64{0, l, r},
	}
}

func TestTreeEnsemble_AverageProba(t *testing.T) {
	m := &TreeEnsemble{
		Trees:       []Tree{stump(0.5, 0.2, 0.9), stump(0.3, 0.4, 0.7)},
		Aggregation: AverageProba,
		NFeatures:   1,
	}
	require.NoError(t, m.Validate())

	probs, err := m.PredictProba([][]float64{{0.1}, {0.4}, {0.5}, {0.8}})
	require.NoError(t, err)
	assert.InDelta(t, 0.3, probs[0].Approve(), 1e-12)
	assert.InDelta(t, 0.45, probs[1].Approve(), 1e-12)
	// threshold equality goes left
	assert.InDelta(t, 0.45, probs[2].Approve(), 1e-12)
	assert.InDelta(t, 0.8, probs[3].Approve(), 1e-12)
}

func TestTreeEnsemble_SumLogit(t *testing.T) {
	m := &TreeEnsemble{
		Trees:        []Tree{stump(0, -2, 2), stump(0, -1, 1)},
		Aggregation:  SumLogit,
		BaseScore:    0.5,
		LearningRate: 0.5,
		NFeatures:    1,
	}
	require.NoError(t, m.Validate())

	probs, err := m.PredictProba([][]float64{{-1}, {1}})
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(0.5-1.5), probs[0].Approve(), 1e-12)
	assert.InDelta(t, sigmoid(0.5+1.5), probs[1].Approve(), 1e-12)
	assert.Equal(t, []int{0, 1}, Classes(probs))
}

func TestTreeEnsemble_Validate(t *testing.T) {
	bad := stump(0, 0, 1)
	bad.ChildrenLeft[0] = 0

	tests := []struct {
		name string
		m    TreeEnsemble
	}{
		{"no trees", TreeEnsemble{Aggregation: AverageProba, NFeatures: 1}},
		{"bad aggregation", TreeEnsemble{Trees: []Tree{stump(0, 0, 1)}, Aggregation: "vote", NFeatures: 1}},
		{"cyclic", TreeEnsemble{Trees: []Tree{bad}, Aggregation: AverageProba, NFeatures: 1}},
		{"feature out of range", TreeEnsemble{Trees: []Tree{stump(0, 0, 1)}, Aggregation: AverageProba, NFeatures: 0}},
		{"names mismatch", TreeEnsemble{Trees: []Tree{stump(0, 0, 1)}, Aggregation: AverageProba, NFeatures: 1, FeatureNames: []string{"a", "b"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.m.Validate())
		})
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	models := []Classifier{
		&LogisticRegression{Coef: []float64{1, 2}, Intercept: -1, FeatureNames: []string{"a", "b"}},
		&TreeEnsemble{Trees: []Tree{stump(1, 0.1, 0.9)}, Aggregation: AverageProba, NFeatures: 1},
	}
	for _, m := range models {
		t.Run(m.Kind(), func(t *testing.T) {
			data, err := Encode(m)
			require.NoError(t, err)
			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, m, got)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "\x80\x04pickle"},
		{"no kind", `{"model": {}}`},
		{"no body", `{"kind": "logistic_regression"}`},
		{"unknown kind", `{"kind": "svm", "model": {}}`},
		{"invalid body", `{"kind": "logistic_regression", "model": {"coef": []}}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}
