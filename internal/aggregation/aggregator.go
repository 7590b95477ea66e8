// Package aggregation turns cleaned transactions into gap-free KPI series
// and headline summaries.
package aggregation

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

// MinPeriods is the shortest series the aggregator returns.
const MinPeriods = 2

// Spans at or below these use the finer granularity when none is requested.
const (
	dailySpanLimit  = 180 * 24 * time.Hour
	weeklySpanLimit = 3 * 365 * 24 * time.Hour
)

// Aggregator buckets transactions into periods.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates an aggregator.
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger.With(slog.String("component", "aggregator"))}
}

type bucket struct {
	revenue decimal.Decimal
	units   int64
	orders  int
}

// Aggregate sums revenue, units and order lines per period. Periods without
// transactions are emitted with zero values and Filled set.
func (a *Aggregator) Aggregate(ctx context.Context, txs []domain.Transaction, g domain.Granularity) (*domain.KpiSeries, error) {
	if !g.IsValid() {
		return nil, apperrors.NewAppValidationError("unknown granularity " + string(g))
	}
	if len(txs) == 0 {
		return nil, apperrors.NewInsufficientHistoryError("aggregate", MinPeriods, 0)
	}

	buckets := make(map[time.Time]*bucket)
	first, last := g.Truncate(txs[0].Timestamp), g.Truncate(txs[0].Timestamp)
	for _, tx := range txs {
		start := g.Truncate(tx.Timestamp)
		if start.Before(first) {
			first = start
		}
		if start.After(last) {
			last = start
		}
		b, ok := buckets[start]
		if !ok {
			b = &bucket{}
			buckets[start] = b
		}
		b.revenue = b.revenue.Add(decimal.NewFromFloat(tx.Amount))
		b.units += tx.Quantity
		b.orders++
	}

	series := &domain.KpiSeries{Granularity: g}
	filled := 0
	for p := first; !p.After(last); p = g.Next(p) {
		point := domain.KpiPoint{PeriodStart: p}
		if b, ok := buckets[p]; ok {
			point.Revenue = b.revenue.InexactFloat64()
			point.Units = float64(b.units)
			point.Orders = float64(b.orders)
		} else {
			point.Filled = true
			filled++
		}
		series.Points = append(series.Points, point)
	}

	a.logger.DebugContext(ctx, "aggregation complete",
		slog.String("granularity", string(g)),
		slog.Int("periods", len(series.Points)),
		slog.Int("filled_periods", filled))

	if len(series.Points) < MinPeriods {
		return nil, apperrors.NewInsufficientHistoryError("aggregate", MinPeriods, len(series.Points)).
			WithContext("granularity", string(g))
	}
	return series, nil
}

// InferGranularity picks a granularity from the covered time span: daily up
// to 180 days, weekly up to three years, monthly beyond.
func InferGranularity(txs []domain.Transaction) domain.Granularity {
	if len(txs) == 0 {
		return domain.GranularityDay
	}
	lo, hi := txs[0].Timestamp, txs[0].Timestamp
	for _, tx := range txs[1:] {
		if tx.Timestamp.Before(lo) {
			lo = tx.Timestamp
		}
		if tx.Timestamp.After(hi) {
			hi = tx.Timestamp
		}
	}
	switch span := hi.Sub(lo); {
	case span <= dailySpanLimit:
		return domain.GranularityDay
	case span <= weeklySpanLimit:
		return domain.GranularityWeek
	default:
		return domain.GranularityMonth
	}
}

// SeasonalPeriod is the number of periods in one seasonal cycle.
func SeasonalPeriod(g domain.Granularity) int {
	switch g {
	case domain.GranularityWeek:
		return 52
	case domain.GranularityMonth:
		return 12
	default:
		return 7
	}
}
