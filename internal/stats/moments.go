package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean is the arithmetic mean, NaN for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

// SampleStdDev uses the n-1 denominator. It returns 0 for fewer than two
// values.
func SampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// Finite reports whether every value is a finite number.
func Finite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
