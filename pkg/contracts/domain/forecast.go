package domain

import (
	"fmt"
	"time"
)

// DecompositionMode selects how components combine.
type DecompositionMode string

const (
	ModeAdditive       DecompositionMode = "additive"
	ModeMultiplicative DecompositionMode = "multiplicative"
)

// Decomposition splits a series into trend, seasonal and residual parts.
// Trend and Residual are NaN at the edges where the centered window does not
// fit.
type Decomposition struct {
	Metric          Metric            `json:"metric"`
	Mode            DecompositionMode `json:"mode"`
	Period          int               `json:"period"`
	Observed        Values            `json:"observed"`
	Trend           Values            `json:"trend"`
	Seasonal        Values            `json:"seasonal"`
	Residual        Values            `json:"residual"`
	SeasonalFactors Values            `json:"seasonal_factors"`
}

// CheckShape reports a decomposition whose component slices differ in
// length or whose seasonal factors do not cover exactly one period.
func (d *Decomposition) CheckShape() error {
	n := len(d.Observed)
	for _, c := range []struct {
		name string
		v    Values
	}{
		{"trend", d.Trend},
		{"seasonal", d.Seasonal},
		{"residual", d.Residual},
	} {
		if len(c.v) != n {
			return fmt.Errorf("%s has %d values, observed has %d", c.name, len(c.v), n)
		}
	}
	if d.Period < 1 {
		return fmt.Errorf("period must be positive, got %d", d.Period)
	}
	if len(d.SeasonalFactors) != d.Period {
		return fmt.Errorf("seasonal_factors has %d values, period is %d", len(d.SeasonalFactors), d.Period)
	}
	return nil
}

// Reconstruct combines the components at index i. The result is NaN where
// the trend is undefined.
func (d *Decomposition) Reconstruct(i int) float64 {
	if d.Mode == ModeMultiplicative {
		return d.Trend[i] * d.Seasonal[i] * d.Residual[i]
	}
	return d.Trend[i] + d.Seasonal[i] + d.Residual[i]
}

// SeasonalAt returns the seasonal factor for absolute index i, which may lie
// beyond the observed range.
func (d *Decomposition) SeasonalAt(i int) float64 {
	p := d.Period
	return d.SeasonalFactors[((i%p)+p)%p]
}

// ModelID tags a forecasting candidate.
type ModelID string

const (
	ModelNaiveSeasonal ModelID = "naive_seasonal"
	ModelLinearTrend   ModelID = "linear_trend"
	ModelExpSmoothing  ModelID = "exp_smoothing"
)

// ScoreMetric is the holdout accuracy measure.
type ScoreMetric string

const (
	ScoreMAPE ScoreMetric = "mape"
	ScoreMAE  ScoreMetric = "mae"
)

// ForecastPoint is one step-ahead prediction with its interval.
type ForecastPoint struct {
	PeriodStart time.Time `json:"period_start"`
	Step        int       `json:"step"`
	Value       float64   `json:"value"`
	Lower       float64   `json:"lower"`
	Upper       float64   `json:"upper"`
}

// CandidateScore is the backtest outcome of one candidate.
type CandidateScore struct {
	Model    ModelID `json:"model"`
	Score    float64 `json:"score"`
	Excluded bool    `json:"excluded,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// ForecastResult is the selected model's forecast.
type ForecastResult struct {
	Metric         Metric           `json:"metric"`
	Model          ModelID          `json:"model"`
	Score          float64          `json:"score"`
	ScoreMetric    ScoreMetric      `json:"score_metric"`
	HoldoutSize    int              `json:"holdout_size"`
	ResidualStdDev float64          `json:"residual_std_dev"`
	Seasonal       bool             `json:"seasonal"`
	Points         []ForecastPoint  `json:"points"`
	Candidates     []CandidateScore `json:"candidates"`
}
