package model

import "fmt"

// KindTreeEnsemble is the serialized kind of TreeEnsemble.
const KindTreeEnsemble = "tree_ensemble"

// Ways of combining the trees of an ensemble.
const (
	// AverageProba averages leaf values read as P(approve), as a random
	// forest does.
	AverageProba = "average_proba"
	// SumLogit adds learning_rate-scaled leaf values to base_score and
	// applies the sigmoid, as gradient boosting does.
	SumLogit = "sum_logit"
)

// Tree is one decision tree in flattened array form. Node i is a leaf when
// ChildrenLeft[i] is -1. A row goes left when x[Feature[i]] <= Threshold[i].
type Tree struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

func (t *Tree) validate(numFeatures int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("tree arrays differ in length")
	}
	for i := 0; i < n; i++ {
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l == -1 {
			if r != -1 {
				return fmt.Errorf("node %d has only a right child", i)
			}
			continue
		}
		// children always come after their parent, so walks terminate
		if l <= i || r <= i || l >= n || r >= n {
			return fmt.Errorf("node %d has children %d/%d out of order", i, l, r)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= numFeatures {
			return fmt.Errorf("node %d splits on feature %d of %d", i, t.Feature[i], numFeatures)
		}
	}
	return nil
}

func (t *Tree) leaf(row []float64) float64 {
	i := 0
	for t.ChildrenLeft[i] != -1 {
		if row[t.Feature[i]] <= t.Threshold[i] {
			i = t.ChildrenLeft[i]
		} else {
			i = t.ChildrenRight[i]
		}
	}
	return t.Value[i]
}

// TreeEnsemble is a forest or boosted ensemble of binary trees.
type TreeEnsemble struct {
	Trees        []Tree   `json:"trees"`
	Aggregation  string   `json:"aggregation"`
	BaseScore    float64  `json:"base_score,omitempty"`
	LearningRate float64  `json:"learning_rate,omitempty"`
	NFeatures    int      `json:"n_features"`
	FeatureNames []string `json:"feature_names,omitempty"`
}

func (m *TreeEnsemble) Kind() string { return KindTreeEnsemble }

func (m *TreeEnsemble) Features() []string { return m.FeatureNames }

func (m *TreeEnsemble) NumFeatures() int { return m.NFeatures }

// Validate checks the ensemble shape.
func (m *TreeEnsemble) Validate() error {
	if len(m.Trees) == 0 {
		return fmt.Errorf("tree ensemble has no trees")
	}
	switch m.Aggregation {
	case AverageProba, SumLogit:
	default:
		return fmt.Errorf("tree ensemble: unsupported aggregation %q", m.Aggregation)
	}
	if m.NFeatures <= 0 {
		return fmt.Errorf("tree ensemble: n_features must be positive")
	}
	if len(m.FeatureNames) > 0 && len(m.FeatureNames) != m.NFeatures {
		return fmt.Errorf("tree ensemble has %d features but %d feature names", m.NFeatures, len(m.FeatureNames))
	}
	for i := range m.Trees {
		if err := m.Trees[i].validate(m.NFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func (m *TreeEnsemble) learningRate() float64 {
	if m.LearningRate == 0 {
		return 1
	}
	return m.LearningRate
}

func (m *TreeEnsemble) PredictProba(x [][]float64) ([]Probabilities, error) {
	if err := checkWidth(x, m.NFeatures); err != nil {
		return nil, err
	}
	out := make([]Probabilities, len(x))
	for i, row := range x {
		switch m.Aggregation {
		case SumLogit:
			z := m.BaseScore
			for k := range m.Trees {
				z += m.learningRate() * m.Trees[k].leaf(row)
			}
			out[i] = pair(sigmoid(z))
		default:
			var sum float64
			for k := range m.Trees {
				sum += m.Trees[k].leaf(row)
			}
			out[i] = pair(sum / float64(len(m.Trees)))
		}
	}
	return out, nil
}
