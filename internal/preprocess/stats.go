package preprocess

import (
	"math"
	"sort"
)

// quantile returns the q-th quantile (0 <= q <= 1) of sorted values using
// linear interpolation between the closest ranks.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	rank := q * float64(n-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= n {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}

// median of values; NaN when empty.
func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	cp := append([]float64(nil), values...)
	sort.Float64s(cp)
	mid := n / 2
	if n%2 == 0 {
		return (cp[mid-1] + cp[mid]) / 2
	}
	return cp[mid]
}

// present collects the non-missing numbers of a column.
func present(cells []Cell) []float64 {
	out := make([]float64, 0, len(cells))
	for _, c := range cells {
		if c.Kind == Number {
			out = append(out, c.Num)
		}
	}
	return out
}
