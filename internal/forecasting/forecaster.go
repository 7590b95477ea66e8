// Package forecasting selects a short-horizon forecasting model by holdout
// backtest and produces point forecasts with widening intervals.
package forecasting

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/decomposition"
	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/stats"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

const (
	DefaultHoldoutFraction = 0.2
	DefaultMinHoldout      = 2
	DefaultIntervalZ       = 1.96
	DefaultHorizon         = 12

	// MinTraining is the fewest points a candidate is fitted on.
	MinTraining = 2

	// Scores closer than this are ties.
	scoreTolerance = 1e-9
)

// Config holds the selection parameters.
type Config struct {
	HoldoutFraction float64
	MinHoldout      int
	IntervalZ       float64
}

// DefaultConfig returns the standard selection parameters.
func DefaultConfig() Config {
	return Config{
		HoldoutFraction: DefaultHoldoutFraction,
		MinHoldout:      DefaultMinHoldout,
		IntervalZ:       DefaultIntervalZ,
	}
}

// Request describes one forecast.
type Request struct {
	Series        *domain.KpiSeries
	Metric        domain.Metric
	Period        int
	Horizon       int
	Decomposition *domain.Decomposition
}

// Forecaster runs the candidate backtest.
type Forecaster struct {
	cfg        Config
	decomposer *decomposition.Decomposer
	logger     *slog.Logger
}

// NewForecaster creates a forecaster. Zero config fields take defaults.
func NewForecaster(cfg Config, decomposer *decomposition.Decomposer, logger *slog.Logger) *Forecaster {
	if cfg.HoldoutFraction <= 0 || cfg.HoldoutFraction >= 1 {
		cfg.HoldoutFraction = DefaultHoldoutFraction
	}
	if cfg.MinHoldout < 1 {
		cfg.MinHoldout = DefaultMinHoldout
	}
	if cfg.IntervalZ <= 0 {
		cfg.IntervalZ = DefaultIntervalZ
	}
	if logger == nil {
		logger = slog.Default()
	}
	if decomposer == nil {
		decomposer = decomposition.NewDecomposer(logger)
	}
	return &Forecaster{cfg: cfg, decomposer: decomposer, logger: logger.With(slog.String("component", "forecaster"))}
}

// HoldoutSize returns max(MinHoldout, min(period, floor(fraction*n))).
func (f *Forecaster) HoldoutSize(n, period int) int {
	k := int(math.Floor(f.cfg.HoldoutFraction * float64(n)))
	if period > 0 && period < k {
		k = period
	}
	if k < f.cfg.MinHoldout {
		k = f.cfg.MinHoldout
	}
	return k
}

// Forecast backtests every candidate on a holdout, refits the best one on
// the full history and extrapolates req.Horizon periods. Without a
// decomposition only the trend models compete.
func (f *Forecaster) Forecast(ctx context.Context, req Request) (*domain.ForecastResult, error) {
	if req.Series == nil {
		return nil, apperrors.NewAppValidationError("series is required")
	}
	if req.Horizon < 1 {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("horizon must be at least 1, got %d", req.Horizon))
	}
	metric := req.Metric
	if metric == "" {
		metric = domain.MetricRevenue
	}

	y := req.Series.Values(metric)
	n := len(y)
	k := f.HoldoutSize(n, req.Period)
	if n-k < MinTraining {
		return nil, apperrors.NewInsufficientHistoryError("forecast", k+MinTraining, n).
			WithContext("holdout", k)
	}
	train, test := y[:n-k], y[n-k:]

	// The training window gets its own decomposition so the holdout never
	// leaks into the seasonal factors.
	var trainSeason *domain.Decomposition
	if req.Decomposition != nil {
		if d, err := f.decomposer.Decompose(ctx, metric, train, req.Period); err == nil {
			trainSeason = d
		}
	}

	scoreMetric := domain.ScoreMAPE
	if stats.AnyZero(test) {
		scoreMetric = domain.ScoreMAE
	}

	result := &domain.ForecastResult{
		Metric:      metric,
		ScoreMetric: scoreMetric,
		HoldoutSize: k,
	}

	var (
		winner    model
		bestScore = math.Inf(1)
		bestPreds []float64
	)
	for _, m := range newCandidates() {
		score := domain.CandidateScore{Model: m.id()}
		if m.needsSeason() && req.Decomposition == nil {
			score.Excluded, score.Error = true, "no seasonal decomposition; trend-only path"
			result.Candidates = append(result.Candidates, score)
			continue
		}
		if err := m.fit(train, req.Period, trainSeason); err != nil {
			score.Excluded, score.Error = true, err.Error()
			result.Candidates = append(result.Candidates, score)
			f.logger.DebugContext(ctx, "candidate excluded", slog.String("model", string(m.id())), slog.String("error", err.Error()))
			continue
		}

		preds := m.predict(k)
		score.Score = scoreOf(scoreMetric, test, preds)
		if math.IsNaN(score.Score) || math.IsInf(score.Score, 0) {
			score.Excluded, score.Error, score.Score = true, "non-finite backtest score", 0
			result.Candidates = append(result.Candidates, score)
			continue
		}
		result.Candidates = append(result.Candidates, score)

		f.logger.DebugContext(ctx, "candidate scored",
			slog.String("model", string(m.id())),
			slog.String("score_metric", string(scoreMetric)),
			slog.Float64("score", score.Score))

		if winner == nil || score.Score < bestScore-scoreTolerance {
			winner, bestScore, bestPreds = m, score.Score, preds
		}
	}

	if winner == nil {
		return nil, apperrors.NewInsufficientHistoryError("forecast", k+MinTraining, n).
			WithContext("reason", "no candidate model could be fitted")
	}

	sigma := stats.SampleStdDev(stats.Residuals(test, bestPreds))

	// Refit the variant that was scored: when the training window was too
	// short to decompose, the backtest ran trend-only.
	refitSeason := req.Decomposition
	if trainSeason == nil {
		refitSeason = nil
	}
	final := newModel(winner.id())
	if err := final.fit(y, req.Period, refitSeason); err != nil {
		return nil, fmt.Errorf("refit %s on full history: %w", winner.id(), err)
	}
	values := final.predict(req.Horizon)

	result.Model = winner.id()
	result.Score = bestScore
	result.ResidualStdDev = sigma
	result.Seasonal = final.seasonal()
	result.Points = make([]domain.ForecastPoint, req.Horizon)
	last := req.Series.Last()
	for h := 1; h <= req.Horizon; h++ {
		half := f.cfg.IntervalZ * sigma * math.Sqrt(float64(h))
		v := values[h-1]
		result.Points[h-1] = domain.ForecastPoint{
			PeriodStart: req.Series.Granularity.Advance(last, h),
			Step:        h,
			Value:       v,
			Lower:       v - half,
			Upper:       v + half,
		}
	}

	f.logger.InfoContext(ctx, "forecast complete",
		slog.String("metric", string(metric)),
		slog.String("model", string(result.Model)),
		slog.Float64("score", result.Score),
		slog.Int("holdout", k),
		slog.Int("horizon", req.Horizon),
		slog.Bool("seasonal", result.Seasonal))

	return result, nil
}

func scoreOf(metric domain.ScoreMetric, actual, predicted []float64) float64 {
	if metric == domain.ScoreMAE {
		return stats.MAE(actual, predicted)
	}
	return stats.MAPE(actual, predicted)
}
