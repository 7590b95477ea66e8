package operations

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/aggregation"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/cleaning"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/decomposition"
	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/forecasting"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/schema"
)

// defaultSteps builds the pipeline in execution order.
func defaultSteps(logger *slog.Logger) []Step {
	decomposer := decomposition.NewDecomposer(logger)
	return []Step{
		&normalizeStep{BaseStage: NewBaseStage(StageIDNormalize, StageNameNormalize), normalizer: schema.NewNormalizer(logger)},
		&cleanStep{BaseStage: NewBaseStage(StageIDClean, StageNameClean), logger: logger},
		&aggregateStep{BaseStage: NewBaseStage(StageIDAggregate, StageNameAggregate), aggregator: aggregation.NewAggregator(logger)},
		&decomposeStep{BaseStage: NewBaseStage(StageIDDecompose, StageNameDecompose), decomposer: decomposer},
		&forecastStep{BaseStage: NewBaseStage(StageIDForecast, StageNameForecast), decomposer: decomposer, logger: logger},
	}
}

type normalizeStep struct {
	BaseStage
	normalizer *schema.Normalizer
}

func (s *normalizeStep) Execute(ctx context.Context, state *RunState) error {
	txs, mapping, err := s.normalizer.Normalize(ctx, state.Table, schema.Overrides(state.Options.RoleOverrides))
	if err != nil {
		return err
	}
	state.Mapping = mapping
	state.Candidates = txs
	state.Note(s.ID(), fmt.Sprintf("%d columns mapped, %d unmapped", len(mapping.Columns), len(mapping.Unmapped)))
	return nil
}

type cleanStep struct {
	BaseStage
	logger *slog.Logger
}

func (s *cleanStep) Execute(ctx context.Context, state *RunState) error {
	cleaner := cleaning.NewCleaner(state.Options.cleaningOptions(), s.logger)
	cleaned, audit, err := cleaner.Clean(ctx, state.Candidates)
	state.Audit = audit
	if err != nil {
		return err
	}
	state.Cleaned = cleaned
	state.Note(s.ID(), fmt.Sprintf("kept %d of %d rows", audit.OutputRows, audit.InputRows))
	return nil
}

type aggregateStep struct {
	BaseStage
	aggregator *aggregation.Aggregator
}

func (s *aggregateStep) Execute(ctx context.Context, state *RunState) error {
	g := state.Options.Granularity
	if g == "" {
		g = aggregation.InferGranularity(state.Cleaned)
	}
	series, err := s.aggregator.Aggregate(ctx, state.Cleaned, g)
	if err != nil {
		return err
	}
	state.Series = series
	state.Period = aggregation.SeasonalPeriod(g)
	state.Summary = aggregation.Summarize(state.Cleaned)
	if state.Options.TopProducts > 0 {
		state.TopProducts = aggregation.TopProducts(state.Cleaned, state.Options.TopProducts)
	}
	state.Countries = aggregation.SalesByCountry(state.Cleaned)
	state.Note(s.ID(), fmt.Sprintf("%d %s periods", series.Len(), g))
	return nil
}

type decomposeStep struct {
	BaseStage
	decomposer *decomposition.Decomposer
}

func (s *decomposeStep) Execute(ctx context.Context, state *RunState) error {
	metric := state.Options.Metric
	d, err := s.decomposer.Decompose(ctx, metric, state.Series.Values(metric), state.Period)
	if apperrors.IsInsufficientHistory(err) {
		return &SkipError{
			Reason: fmt.Sprintf("need %d periods for seasonal decomposition, have %d; trend-only forecast", 2*state.Period, state.Series.Len()),
			Cause:  err,
		}
	}
	if err != nil {
		return err
	}
	state.Decomposition = d
	state.Note(s.ID(), fmt.Sprintf("%s, period %d", d.Mode, d.Period))
	return nil
}

type forecastStep struct {
	BaseStage
	decomposer *decomposition.Decomposer
	logger     *slog.Logger
}

func (s *forecastStep) Execute(ctx context.Context, state *RunState) error {
	f := forecasting.NewForecaster(state.Options.forecastConfig(), s.decomposer, s.logger)
	res, err := f.Forecast(ctx, forecasting.Request{
		Series:        state.Series,
		Metric:        state.Options.Metric,
		Period:        state.Period,
		Horizon:       state.Options.Horizon,
		Decomposition: state.Decomposition,
	})
	if err != nil {
		return err
	}
	state.Forecast = res
	state.Note(s.ID(), fmt.Sprintf("%s selected, %s %.4g", res.Model, res.ScoreMetric, res.Score))
	return nil
}
