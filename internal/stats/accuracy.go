package stats

import "math"

// MAE is the mean absolute error.
func MAE(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return math.NaN()
	}
	var sum float64
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

// MAPE is the mean absolute percentage error, in percent. It is undefined
// when any actual value is zero.
func MAPE(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return math.NaN()
	}
	var sum float64
	for i := range actual {
		if actual[i] == 0 {
			return math.NaN()
		}
		sum += math.Abs((actual[i] - predicted[i]) / actual[i])
	}
	return sum / float64(len(actual)) * 100
}

// AnyZero reports whether values contains an exact zero.
func AnyZero(values []float64) bool {
	for _, v := range values {
		if v == 0 {
			return true
		}
	}
	return false
}

// Residuals returns actual - predicted.
func Residuals(actual, predicted []float64) []float64 {
	out := make([]float64, len(actual))
	for i := range actual {
		out[i] = actual[i] - predicted[i]
	}
	return out
}
