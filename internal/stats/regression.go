package stats

import (
	"errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrSingularFit is returned when the regressor has no variance.
var ErrSingularFit = errors.New("singular fit: regressor has zero variance")

// LineFit is y = Intercept + Slope*x.
type LineFit struct {
	Intercept float64
	Slope     float64
}

// At evaluates the line at x.
func (f LineFit) At(x float64) float64 {
	return f.Intercept + f.Slope*x
}

// OLS fits y against x by ordinary least squares.
func OLS(x, y []float64) (LineFit, error) {
	if len(x) != len(y) {
		return LineFit{}, errors.New("x and y lengths differ")
	}
	if len(x) < 2 {
		return LineFit{}, ErrSingularFit
	}
	if floats.Max(x) == floats.Min(x) {
		return LineFit{}, ErrSingularFit
	}
	if !Finite(x) || !Finite(y) {
		return LineFit{}, errors.New("non-finite input")
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return LineFit{Intercept: alpha, Slope: beta}, nil
}

// OLSIndex fits y against its index 0..n-1.
func OLSIndex(y []float64) (LineFit, error) {
	return OLS(Index(len(y), 0), y)
}

// Index returns [start, start+1, ..., start+n-1] as floats.
func Index(n int, start int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(start + i)
	}
	return x
}
