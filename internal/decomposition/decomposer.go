// Package decomposition performs classical seasonal decomposition with a
// centered moving-average trend.
package decomposition

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

// Decomposer splits a series into trend, seasonal and residual components.
type Decomposer struct {
	logger *slog.Logger
}

// NewDecomposer creates a decomposer.
func NewDecomposer(logger *slog.Logger) *Decomposer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decomposer{logger: logger.With(slog.String("component", "decomposer"))}
}

// Decompose needs at least two full cycles. The mode is multiplicative when
// every value is strictly positive and additive otherwise.
func (d *Decomposer) Decompose(ctx context.Context, metric domain.Metric, values []float64, period int) (*domain.Decomposition, error) {
	if period < 2 {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("seasonal period must be at least 2, got %d", period))
	}
	if len(values) < 2*period {
		return nil, apperrors.NewInsufficientHistoryError("decompose", 2*period, len(values)).
			WithContext("period", period)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, apperrors.NewAppValidationError(fmt.Sprintf("value at index %d is not finite", i))
		}
	}

	mode := ChooseMode(values)
	trend := CenteredMovingAverage(values, period)

	n := len(values)
	sums := make([]float64, period)
	counts := make([]int, period)
	for i := 0; i < n; i++ {
		if math.IsNaN(trend[i]) {
			continue
		}
		pos := i % period
		if mode == domain.ModeMultiplicative {
			sums[pos] += values[i] / trend[i]
		} else {
			sums[pos] += values[i] - trend[i]
		}
		counts[pos]++
	}

	factors := make([]float64, period)
	var total float64
	for p := range factors {
		factors[p] = sums[p] / float64(counts[p])
		total += factors[p]
	}
	mean := total / float64(period)
	for p := range factors {
		if mode == domain.ModeMultiplicative {
			factors[p] /= mean
		} else {
			factors[p] -= mean
		}
	}

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i := 0; i < n; i++ {
		seasonal[i] = factors[i%period]
		switch {
		case math.IsNaN(trend[i]):
			residual[i] = math.NaN()
		case mode == domain.ModeMultiplicative:
			residual[i] = values[i] / (trend[i] * seasonal[i])
		default:
			residual[i] = values[i] - trend[i] - seasonal[i]
		}
	}

	d.logger.DebugContext(ctx, "decomposition complete",
		slog.String("metric", string(metric)),
		slog.String("mode", string(mode)),
		slog.Int("period", period),
		slog.Int("length", n))

	return &domain.Decomposition{
		Metric:          metric,
		Mode:            mode,
		Period:          period,
		Observed:        append(domain.Values(nil), values...),
		Trend:           trend,
		Seasonal:        seasonal,
		Residual:        residual,
		SeasonalFactors: factors,
	}, nil
}

// ChooseMode returns multiplicative when every value is strictly positive.
func ChooseMode(values []float64) domain.DecompositionMode {
	for _, v := range values {
		if v <= 0 {
			return domain.ModeAdditive
		}
	}
	return domain.ModeMultiplicative
}

// CenteredMovingAverage returns the centered moving average of window m.
// Even windows use the 2xm average, which weights the two end points by one
// half. Positions where the window does not fit are NaN.
func CenteredMovingAverage(values []float64, m int) []float64 {
	n := len(values)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	half := m / 2
	for i := half; i < n-half; i++ {
		var sum float64
		if m%2 == 1 {
			for j := i - half; j <= i+half; j++ {
				sum += values[j]
			}
		} else {
			sum = 0.5*values[i-half] + 0.5*values[i+half]
			for j := i - half + 1; j < i+half; j++ {
				sum += values[j]
			}
		}
		out[i] = sum / float64(m)
	}
	return out
}

// SeasonallyAdjust removes the seasonal component from values, which are
// assumed to start at index offset of the decomposed series.
func SeasonallyAdjust(d *domain.Decomposition, values []float64, offset int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		s := d.SeasonalAt(offset + i)
		if d.Mode == domain.ModeMultiplicative {
			out[i] = v / s
		} else {
			out[i] = v - s
		}
	}
	return out
}

// Reseasonalize applies the seasonal component to adjusted values starting at
// absolute index offset.
func Reseasonalize(d *domain.Decomposition, adjusted []float64, offset int) []float64 {
	out := make([]float64, len(adjusted))
	for i, v := range adjusted {
		s := d.SeasonalAt(offset + i)
		if d.Mode == domain.ModeMultiplicative {
			out[i] = v * s
		} else {
			out[i] = v + s
		}
	}
	return out
}
