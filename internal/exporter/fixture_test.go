package exporter

import (
	"math"
	"time"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

func sampleReport(withDecomposition bool) *domain.AnalysisReport {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := domain.KpiSeries{Granularity: domain.GranularityDay}
	for i := 0; i < 4; i++ {
		series.Points = append(series.Points, domain.KpiPoint{
			PeriodStart: start.AddDate(0, 0, i),
			Revenue:     100 + float64(i)*10,
			Units:       float64(5 + i),
			Orders:      float64(2 + i),
			Filled:      i == 2,
		})
	}

	r := &domain.AnalysisReport{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
		Metric:      domain.MetricRevenue,
		Audit: domain.CleaningAudit{
			InputRows:        10,
			OutputRows:       7,
			Dropped:          map[domain.DropReason]int{domain.DropDuplicate: 2, domain.DropOutlier: 1},
			OutlierFiltering: domain.OutlierFilterApplied,
			OutlierBounds:    &domain.OutlierBounds{Q1: 10, Q3: 20, IQR: 10, Multiplier: 1.5, Lower: -5, Upper: 35, Passes: 1},
			Steps:            []domain.AuditStep{{Step: "duplicates", Removed: 2, Remaining: 8}},
		},
		Summary: domain.Summary{
			TotalRevenue:      460,
			TotalOrders:       14,
			AverageOrderValue: 460.0 / 14,
			UniqueCustomers:   3,
			UnitsSold:         26,
			FirstTransaction:  start.Add(9 * time.Hour),
			LastTransaction:   start.AddDate(0, 0, 3).Add(17 * time.Hour),
		},
		TopProducts: []domain.ProductSales{
			{ProductID: "SKU-1", Description: "Mug, \"large\"", Revenue: 300, Units: 12, Orders: 4},
			{Description: "Tea towel", Revenue: 40, Units: 2, Orders: 2},
		},
		Countries: []domain.CountrySales{
			{Country: "United Kingdom", Revenue: 380, Orders: 11},
			{Country: "Unknown", Revenue: 80, Orders: 3},
		},
		Series: series,
		Forecast: domain.ForecastResult{
			Metric:      domain.MetricRevenue,
			Model:       domain.ModelLinearTrend,
			Score:       0.0123,
			ScoreMetric: domain.ScoreMAPE,
			HoldoutSize: 2,
			Points: []domain.ForecastPoint{
				{PeriodStart: start.AddDate(0, 0, 4), Step: 1, Value: 140, Lower: 130.5, Upper: 149.5},
				{PeriodStart: start.AddDate(0, 0, 5), Step: 2, Value: 150, Lower: 136.56, Upper: 163.44},
			},
			Candidates: []domain.CandidateScore{
				{Model: domain.ModelLinearTrend, Score: 0.0123},
				{Model: domain.ModelExpSmoothing, Score: 0.05},
				{Model: domain.ModelNaiveSeasonal, Excluded: true, Error: "no decomposition"},
			},
		},
		Stages: []domain.StageTiming{{Stage: "normalize", Status: "completed", Duration: time.Millisecond}},
	}
	if withDecomposition {
		nan := math.NaN()
		r.Decomposition = &domain.Decomposition{
			Metric:          domain.MetricRevenue,
			Mode:            domain.ModeMultiplicative,
			Period:          2,
			Observed:        domain.Values{100, 110, 120, 130},
			Trend:           domain.Values{nan, 110, 120, nan},
			Seasonal:        domain.Values{0.98, 1.02, 0.98, 1.02},
			Residual:        domain.Values{nan, 0.98, 1.02, nan},
			SeasonalFactors: domain.Values{0.98, 1.02},
		}
	}
	return r
}
