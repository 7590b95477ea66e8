package domain

import (
	"fmt"
	"math"
	"time"
)

// Granularity is the bucketing period of a KPI series.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// IsValid reports whether g is a supported granularity.
func (g Granularity) IsValid() bool {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return true
	}
	return false
}

// Truncate returns the UTC start of the period containing t. Weeks start on
// Monday.
func (g Granularity) Truncate(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch g {
	case GranularityWeek:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// Next returns the start of the period after start.
func (g Granularity) Next(start time.Time) time.Time {
	switch g {
	case GranularityWeek:
		return start.AddDate(0, 0, 7)
	case GranularityMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// Advance returns the start of the period n steps after start.
func (g Granularity) Advance(start time.Time, n int) time.Time {
	switch g {
	case GranularityWeek:
		return start.AddDate(0, 0, 7*n)
	case GranularityMonth:
		return start.AddDate(0, n, 0)
	default:
		return start.AddDate(0, 0, n)
	}
}

// ParseGranularity accepts the canonical names and their adverb forms.
func ParseGranularity(s string) (Granularity, error) {
	switch s {
	case "day", "daily", "D", "d":
		return GranularityDay, nil
	case "week", "weekly", "W", "w":
		return GranularityWeek, nil
	case "month", "monthly", "M", "m":
		return GranularityMonth, nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}

// Metric names a KPI measured per period.
type Metric string

const (
	MetricRevenue Metric = "revenue"
	MetricUnits   Metric = "units"
	MetricOrders  Metric = "orders"
)

// Metrics lists the KPI metrics in report order.
var Metrics = []Metric{MetricRevenue, MetricUnits, MetricOrders}

// IsValid reports whether m is a known metric.
func (m Metric) IsValid() bool {
	switch m {
	case MetricRevenue, MetricUnits, MetricOrders:
		return true
	}
	return false
}

// KpiPoint holds the metric values of one period. Filled marks periods with
// no transactions.
type KpiPoint struct {
	PeriodStart time.Time `json:"period_start"`
	Revenue     float64   `json:"revenue"`
	Units       float64   `json:"units"`
	Orders      float64   `json:"orders"`
	Filled      bool      `json:"filled,omitempty"`
}

// Value returns the value of metric m.
func (p KpiPoint) Value(m Metric) float64 {
	switch m {
	case MetricUnits:
		return p.Units
	case MetricOrders:
		return p.Orders
	default:
		return p.Revenue
	}
}

// KpiSeries is an ordered, gap-free sequence of periods.
type KpiSeries struct {
	Granularity Granularity `json:"granularity"`
	Points      []KpiPoint  `json:"points"`
}

// Len returns the number of periods.
func (s *KpiSeries) Len() int { return len(s.Points) }

// Values extracts one metric as a slice.
func (s *KpiSeries) Values(m Metric) []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value(m)
	}
	return out
}

// GrowthPct returns period-over-period growth in percent. The first element
// and any element following a zero value are NaN.
func (s *KpiSeries) GrowthPct(m Metric) []float64 {
	out := make([]float64, len(s.Points))
	for i := range s.Points {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		prev := s.Points[i-1].Value(m)
		if prev == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (s.Points[i].Value(m) - prev) / prev * 100
	}
	return out
}

// Last returns the start of the final period.
func (s *KpiSeries) Last() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].PeriodStart
}
