package decomposition

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

const eps = 1e-9

func seasonalSeries(n, period int, base, slope float64, pattern []float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = base + slope*float64(i) + pattern[i%period]
	}
	return out
}

func TestCenteredMovingAverage(t *testing.T) {
	t.Run("odd window", func(t *testing.T) {
		ma := CenteredMovingAverage([]float64{1, 2, 3, 4, 5}, 3)
		assert.True(t, math.IsNaN(ma[0]))
		assert.InDelta(t, 2, ma[1], eps)
		assert.InDelta(t, 3, ma[2], eps)
		assert.InDelta(t, 4, ma[3], eps)
		assert.True(t, math.IsNaN(ma[4]))
	})

	t.Run("even window uses 2xm average", func(t *testing.T) {
		ma := CenteredMovingAverage([]float64{1, 2, 3, 4, 5, 6}, 4)
		assert.True(t, math.IsNaN(ma[0]))
		assert.True(t, math.IsNaN(ma[1]))
		// (0.5*1 + 2 + 3 + 4 + 0.5*5) / 4
		assert.InDelta(t, 3, ma[2], eps)
		assert.InDelta(t, 4, ma[3], eps)
		assert.True(t, math.IsNaN(ma[4]))
	})
}

func TestDecompose_Additive(t *testing.T) {
	pattern := []float64{-3, 1, 4, -2}
	values := seasonalSeries(16, 4, 0, 2, pattern)
	values[0] = -10 // forces additive mode

	d, err := NewDecomposer(nil).Decompose(context.Background(), domain.MetricRevenue, values, 4)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeAdditive, d.Mode)
	assert.Len(t, d.SeasonalFactors, 4)
	var sum float64
	for _, f := range d.SeasonalFactors {
		sum += f
	}
	assert.InDelta(t, 0, sum, eps)

	for i := range values {
		if math.IsNaN(d.Trend[i]) {
			assert.True(t, math.IsNaN(d.Residual[i]))
			continue
		}
		assert.InDelta(t, values[i], d.Reconstruct(i), eps)
	}
}

func TestDecompose_RecoversAdditivePattern(t *testing.T) {
	pattern := []float64{-3, 1, 4, -2, 0}
	values := seasonalSeries(25, 5, -50, 1, pattern)

	d, err := NewDecomposer(nil).Decompose(context.Background(), domain.MetricUnits, values, 5)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeAdditive, d.Mode)
	for p, want := range pattern {
		assert.InDelta(t, want, d.SeasonalFactors[p], 1e-9)
	}
	for i := 2; i < 23; i++ {
		assert.InDelta(t, -50+float64(i), d.Trend[i], 1e-9)
		assert.InDelta(t, 0, d.Residual[i], 1e-9)
	}
}

func TestDecompose_Multiplicative(t *testing.T) {
	factors := []float64{0.8, 1.0, 1.3, 0.9}
	values := make([]float64, 24)
	for i := range values {
		values[i] = (100 + 5*float64(i)) * factors[i%4]
	}

	d, err := NewDecomposer(nil).Decompose(context.Background(), domain.MetricRevenue, values, 4)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeMultiplicative, d.Mode)
	var sum float64
	for _, f := range d.SeasonalFactors {
		sum += f
	}
	assert.InDelta(t, 1, sum/4, eps)

	for i := range values {
		if math.IsNaN(d.Trend[i]) {
			continue
		}
		assert.InDelta(t, 1, d.Reconstruct(i)/values[i], eps)
	}
	assert.Equal(t, d.Observed[5], values[5])
}

func TestDecompose_InsufficientHistory(t *testing.T) {
	_, err := NewDecomposer(nil).Decompose(context.Background(), domain.MetricRevenue, make([]float64, 13), 7)
	require.Error(t, err)
	assert.True(t, apperrors.IsInsufficientHistory(err))
	assert.Contains(t, err.Error(), "at least 14 periods")
}

func TestDecompose_RejectsBadInput(t *testing.T) {
	_, err := NewDecomposer(nil).Decompose(context.Background(), domain.MetricRevenue, []float64{1, 2, 3}, 1)
	require.Error(t, err)

	_, err = NewDecomposer(nil).Decompose(context.Background(), domain.MetricRevenue, []float64{1, math.NaN(), 3, 4}, 2)
	require.Error(t, err)
	assert.False(t, apperrors.IsInsufficientHistory(err))
}

func TestChooseMode(t *testing.T) {
	assert.Equal(t, domain.ModeMultiplicative, ChooseMode([]float64{1, 2, 3}))
	assert.Equal(t, domain.ModeAdditive, ChooseMode([]float64{1, 0, 3}))
	assert.Equal(t, domain.ModeAdditive, ChooseMode([]float64{1, -2, 3}))
}

func TestSeasonallyAdjustRoundTrip(t *testing.T) {
	pattern := []float64{-3, 1, 4, -2}
	values := seasonalSeries(12, 4, 10, 0, pattern)
	values[3] = -1

	d, err := NewDecomposer(nil).Decompose(context.Background(), domain.MetricRevenue, values, 4)
	require.NoError(t, err)

	adjusted := SeasonallyAdjust(d, values[4:], 4)
	back := Reseasonalize(d, adjusted, 4)
	for i := range back {
		assert.InDelta(t, values[4+i], back[i], eps)
	}
	assert.Equal(t, d.SeasonalFactors[1], d.SeasonalAt(9))
	assert.Equal(t, d.SeasonalFactors[3], d.SeasonalAt(-1))
}
