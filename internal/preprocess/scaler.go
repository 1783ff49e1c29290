package preprocess

import (
	"fmt"
	"math"
)

// MinMaxScaler is a min-max scaler fitted at training time. Values outside
// the training range map outside the feature range; they are not clamped.
type MinMaxScaler struct {
	Columns      []string   `json:"columns"`
	DataMin      []float64  `json:"data_min"`
	DataMax      []float64  `json:"data_max"`
	FeatureRange [2]float64 `json:"feature_range"`
}

// Validate checks that the fitted parameters are consistent.
func (s *MinMaxScaler) Validate() error {
	if len(s.DataMin) != len(s.Columns) || len(s.DataMax) != len(s.Columns) {
		return fmt.Errorf("min-max scaler: %d columns but %d minimums and %d maximums",
			len(s.Columns), len(s.DataMin), len(s.DataMax))
	}
	lo, hi := s.featureRange()
	if !(lo < hi) {
		return fmt.Errorf("min-max scaler: invalid feature range [%g, %g]", lo, hi)
	}
	for j, col := range s.Columns {
		mn, mx := s.DataMin[j], s.DataMax[j]
		if math.IsNaN(mn) || math.IsNaN(mx) || math.IsInf(mn, 0) || math.IsInf(mx, 0) {
			return fmt.Errorf("min-max scaler: column %q has non-finite bounds", col)
		}
		if mn > mx {
			return fmt.Errorf("min-max scaler: column %q has min %g above max %g", col, mn, mx)
		}
	}
	return nil
}

func (s *MinMaxScaler) featureRange() (float64, float64) {
	if s.FeatureRange == [2]float64{} {
		return 0, 1
	}
	return s.FeatureRange[0], s.FeatureRange[1]
}

// params returns the linear map x*scale + offset of column j. A constant
// column is scaled as if its range were 1.
func (s *MinMaxScaler) params(j int) (scale, offset float64) {
	lo, hi := s.featureRange()
	dataRange := s.DataMax[j] - s.DataMin[j]
	if dataRange == 0 {
		dataRange = 1
	}
	scale = (hi - lo) / dataRange
	offset = lo - s.DataMin[j]*scale
	return scale, offset
}

// Transform scales the fitted columns in place of their raw values. A
// missing value is an error: only income is imputed before scaling.
func (s *MinMaxScaler) Transform(f *Frame) (*Frame, error) {
	out := f.Clone()
	for j, col := range s.Columns {
		cells, err := numericCells(f, col)
		if err != nil {
			return nil, err
		}
		scale, offset := s.params(j)
		scaled := make([]Cell, len(cells))
		for i, c := range cells {
			if c.IsMissing() {
				return nil, &SchemaMismatchError{Column: col, Row: i, Reason: "missing value"}
			}
			scaled[i] = Num(c.Num*scale + offset)
		}
		out.Set(col, scaled)
	}
	return out, nil
}
