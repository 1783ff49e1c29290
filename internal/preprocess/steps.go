package preprocess

import (
	"sort"

	"loanscore/internal/loan"
)

// iqrFactor widens the interquartile range into capping bounds.
const iqrFactor = 1.5

// NormalizeGender lowercases the gender column and rewrites "fe male" to
// "female". Frames without a gender column are returned unchanged.
func NormalizeGender(f *Frame) *Frame {
	cells, ok := f.Column(loan.ColGender)
	if !ok {
		return f
	}
	norm := make([]Cell, len(cells))
	for i, c := range cells {
		if c.Kind == Text {
			c = Str(loan.NormalizeGender(c.Str))
		}
		norm[i] = c
	}
	out := f.Clone()
	out.Set(loan.ColGender, norm)
	return out
}

// CapOutliers clamps each listed column to [Q1-1.5*IQR, Q3+1.5*IQR], with the
// quartiles taken over the non-missing values of this frame only. A one-row
// frame is therefore left as is.
//
// It is a single pass. A second pass is a no-op when both quartiles fall on
// a sample (n-1 divisible by 4) or no capped value is a neighbour of an
// interpolated quartile; otherwise it can pull the capped values further in,
// never past the first-pass bounds.
func CapOutliers(f *Frame, cols []string) (*Frame, error) {
	out := f.Clone()
	for _, col := range cols {
		cells, err := numericCells(f, col)
		if err != nil {
			return nil, err
		}
		values := present(cells)
		if len(values) == 0 {
			out.Set(col, cells)
			continue
		}
		sort.Float64s(values)
		q1 := quantile(values, 0.25)
		q3 := quantile(values, 0.75)
		iqr := q3 - q1
		lower := q1 - iqrFactor*iqr
		upper := q3 + iqrFactor*iqr

		capped := make([]Cell, len(cells))
		for i, c := range cells {
			if c.Kind == Number {
				if c.Num < lower {
					c = Num(lower)
				} else if c.Num > upper {
					c = Num(upper)
				}
			}
			capped[i] = c
		}
		out.Set(col, capped)
	}
	return out, nil
}

// ImputeMedian fills missing cells of col with the median of the column's
// present values in this frame. An absent column is not an error, and a
// column with no present values is left missing.
func ImputeMedian(f *Frame, col string) (*Frame, error) {
	if !f.Has(col) {
		return f, nil
	}
	cells, err := numericCells(f, col)
	if err != nil {
		return nil, err
	}
	values := present(cells)
	if len(values) == len(cells) || len(values) == 0 {
		out := f.Clone()
		out.Set(col, cells)
		return out, nil
	}

	m := median(values)
	filled := make([]Cell, len(cells))
	for i, c := range cells {
		if c.IsMissing() {
			c = Num(m)
		}
		filled[i] = c
	}
	out := f.Clone()
	out.Set(col, filled)
	return out, nil
}

// ImputeIncome fills missing incomes with the batch median. No other column
// is imputed.
func ImputeIncome(f *Frame) (*Frame, error) {
	return ImputeMedian(f, loan.ColIncome)
}
