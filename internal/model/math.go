package model

import (
	"math"
	"sort"
)

// Sigmoid maps a linear activation to (0,1). The two-branch form keeps
// math.Exp out of overflow territory for large-magnitude inputs.
func Sigmoid(x float64) float64 {
	if x >= 0 {
		return 1.0 / (1.0 + math.Exp(-x))
	}
	exp := math.Exp(x)
	return exp / (1.0 + exp)
}

// Median returns the median of values, averaging the two middle elements for
// even counts. An empty slice yields 0.0, the imputation default for features
// with no observed values. The input is not modified.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2.0
	}
	return sorted[mid]
}
