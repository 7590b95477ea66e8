package operations

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/config"
	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/events"
)

var day0 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func newTable() *domain.RawTable {
	return domain.NewRawTable("InvoiceNo", "InvoiceDate", "StockCode", "CustomerID", "Quantity", "Amount")
}

func addSale(t *domain.RawTable, day int, amount float64) {
	t.AppendRow(fmt.Sprintf("INV-%03d", day), day0.AddDate(0, 0, day).Format("2006-01-02 15:04:05"), "SKU-1", "C-1", 1, amount)
}

// scenarioTable holds 86 daily sales plus two duplicates, one negative
// amount and one extreme amount.
func scenarioTable() *domain.RawTable {
	t := newTable()
	for i := 0; i < 86; i++ {
		addSale(t, i, 100+float64(i%5)*2)
	}
	addSale(t, 0, 100)
	addSale(t, 1, 102)
	addSale(t, 100, -5)
	addSale(t, 101, 10000)
	return t
}

func linearTable(days int) *domain.RawTable {
	t := newTable()
	for i := 0; i < days; i++ {
		addSale(t, i, 100+5*float64(i))
	}
	return t
}

type recorder struct {
	mu     sync.Mutex
	events []events.StageEvent
}

func (r *recorder) OnStageEvent(_ context.Context, e events.StageEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestRun_CleaningScenario(t *testing.T) {
	report, err := NewManager(nil).Run(context.Background(), scenarioTable(), DefaultOptions())
	require.NoError(t, err)

	audit := report.Audit
	assert.Equal(t, 90, audit.InputRows)
	assert.Equal(t, 86, audit.OutputRows)
	assert.Equal(t, 1, audit.Dropped[domain.DropInvalidAmount])
	assert.Equal(t, 2, audit.Dropped[domain.DropDuplicate])
	assert.Equal(t, 1, audit.Dropped[domain.DropOutlier])
	assert.True(t, audit.Balanced())

	assert.Equal(t, domain.GranularityDay, report.Series.Granularity)
	assert.Equal(t, 86, report.Series.Len())
	require.NotNil(t, report.Decomposition)
	assert.Equal(t, 7, report.Decomposition.Period)
	assert.Len(t, report.Forecast.Points, 12)
	assert.Equal(t, 86, report.Summary.TotalOrders)
	require.Len(t, report.TopProducts, 1)
	assert.Equal(t, "SKU-1", report.TopProducts[0].ProductID)
	assert.Equal(t, 86, report.TopProducts[0].Orders)
	assert.Nil(t, report.Countries, "no country column")

	require.Len(t, report.Stages, 5)
	for i, id := range []string{StageIDNormalize, StageIDClean, StageIDAggregate, StageIDDecompose, StageIDForecast} {
		assert.Equal(t, id, report.Stages[i].Stage)
		assert.Equal(t, string(StepStatusCompleted), report.Stages[i].Status)
	}
	assert.Equal(t, "kept 86 of 90 rows", report.Stages[1].Note)
}

func TestRun_SalesByCountry(t *testing.T) {
	table := domain.NewRawTable("InvoiceNo", "InvoiceDate", "Description", "Country", "Amount")
	for i := 0; i < 30; i++ {
		country := "France"
		if i%3 == 0 {
			country = "Germany"
		}
		table.AppendRow(fmt.Sprintf("INV-%03d", i), day0.AddDate(0, 0, i).Format("2006-01-02 15:04:05"), "Mug", country, 100.0)
	}

	report, err := NewManager(nil).Run(context.Background(), table, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []domain.CountrySales{
		{Country: "France", Revenue: 2000, Orders: 20},
		{Country: "Germany", Revenue: 1000, Orders: 10},
	}, report.Countries)
	require.Len(t, report.TopProducts, 1)
	assert.Equal(t, domain.ProductSales{Description: "Mug", Revenue: 3000, Units: 30, Orders: 30}, report.TopProducts[0])
}

func TestRun_LinearScenario(t *testing.T) {
	report, err := NewManager(nil).Run(context.Background(), linearTable(30), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, domain.ModelLinearTrend, report.Forecast.Model)
	require.Len(t, report.Forecast.Points, 12)
	for h, p := range report.Forecast.Points {
		assert.InDelta(t, 100+5*float64(30+h), p.Value, 1e-6)
	}
	assert.InDelta(t, 5, report.Forecast.Points[1].Value-report.Forecast.Points[0].Value, 1e-9)
}

func TestRun_ShortHistoryFallsBackToTrendOnly(t *testing.T) {
	report, err := NewManager(nil).Run(context.Background(), linearTable(10), DefaultOptions())
	require.NoError(t, err)

	assert.Nil(t, report.Decomposition)
	assert.False(t, report.Forecast.Seasonal)
	assert.NotEqual(t, domain.ModelNaiveSeasonal, report.Forecast.Model)

	decompose := report.Stages[3]
	assert.Equal(t, StageIDDecompose, decompose.Stage)
	assert.Equal(t, string(StepStatusSkipped), decompose.Status)
	assert.Contains(t, decompose.Note, "trend-only")
	assert.Equal(t, string(StepStatusCompleted), report.Stages[4].Status)
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name     string
		table    *domain.RawTable
		opts     Options
		wantStep string
		check    func(*testing.T, error)
	}{
		{
			name:     "no timestamp column",
			table:    domain.NewRawTable("Amount"),
			opts:     DefaultOptions(),
			wantStep: StageIDNormalize,
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsSchemaError(err))
			},
		},
		{
			name: "every row invalid",
			table: func() *domain.RawTable {
				tbl := newTable()
				addSale(tbl, 0, -1)
				addSale(tbl, 1, -2)
				return tbl
			}(),
			opts:     DefaultOptions(),
			wantStep: StageIDClean,
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsInsufficientData(err))
			},
		},
		{
			name:     "single period",
			table:    linearTable(1),
			opts:     DefaultOptions(),
			wantStep: StageIDAggregate,
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsInsufficientHistory(err))
			},
		},
		{
			name:     "too short to backtest",
			table:    linearTable(3),
			opts:     DefaultOptions(),
			wantStep: StageIDForecast,
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsInsufficientHistory(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := NewManager(nil).Run(context.Background(), tt.table, tt.opts)
			require.Error(t, err)
			assert.Nil(t, report)
			assert.Equal(t, tt.wantStep, FailedStep(err))
			tt.check(t, err)
		})
	}
}

func TestRun_InvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"negative horizon", func(o *Options) { o.Horizon = -1 }},
		{"unknown metric", func(o *Options) { o.Metric = "profit" }},
		{"unknown granularity", func(o *Options) { o.Granularity = "hour" }},
		{"holdout fraction of one", func(o *Options) { o.HoldoutFraction = 1 }},
		{"unknown override role", func(o *Options) { o.RoleOverrides = map[string]domain.Role{"Amount": "price"} }},
		{"empty override column", func(o *Options) { o.RoleOverrides = map[string]domain.Role{"": domain.RoleAmount} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)

			_, err := NewManager(nil).Run(context.Background(), linearTable(30), opts)
			require.Error(t, err)
			typ, ok := apperrors.TypeOf(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrTypeValidation, typ)
		})
	}

	_, err := NewManager(nil).Run(context.Background(), nil, DefaultOptions())
	require.Error(t, err)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewManager(nil).Run(ctx, linearTable(30), DefaultOptions())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, IsCancellation(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StageIDNormalize, FailedStep(err))
}

func TestRun_CancelledBetweenSteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	obs := ObserverFunc(func(_ context.Context, e events.StageEvent) {
		if e.Stage == StageIDClean && e.Status == events.StageStatusCompleted {
			cancel()
		}
	})

	_, err := NewManager(nil, WithObserver(obs)).Run(ctx, linearTable(30), DefaultOptions())
	require.Error(t, err)
	assert.True(t, IsCancellation(err))
	assert.Equal(t, StageIDAggregate, FailedStep(err))
}

func TestRun_ObserverSeesEveryTransition(t *testing.T) {
	rec := &recorder{}
	m := NewManager(nil, WithObserver(rec))

	report, err := m.RunWithID(context.Background(), "run-1", linearTable(10), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "run-1", report.RunID)

	require.Len(t, rec.events, 10)
	for i, e := range rec.events {
		assert.Equal(t, "run-1", e.RunID)
		assert.Equal(t, i/2, e.Index)
		assert.Equal(t, 5, e.Total)
		if i%2 == 0 {
			assert.Equal(t, events.StageStatusActive, e.Status)
		}
	}
	assert.Equal(t, events.StageStatusSkipped, rec.events[7].Status)
	assert.Equal(t, 100, rec.events[9].Progress())
}

func TestRun_ObserverSeesFailure(t *testing.T) {
	rec := &recorder{}
	_, err := NewManager(nil, WithObserver(rec)).Run(context.Background(), domain.NewRawTable("Amount"), DefaultOptions())
	require.Error(t, err)

	require.Len(t, rec.events, 2)
	assert.Equal(t, events.StageStatusFailed, rec.events[1].Status)
	assert.NotEmpty(t, rec.events[1].Error)
}

func TestRun_DeterministicAndConcurrent(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	m := NewManager(nil, WithClock(func() time.Time { return fixed }))

	const runs = 4
	reports := make([]*domain.AnalysisReport, runs)
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := m.RunWithID(context.Background(), "same", scenarioTable(), DefaultOptions())
			assert.NoError(t, err)
			reports[i] = r
		}(i)
	}
	wg.Wait()

	for i := 1; i < runs; i++ {
		require.NotNil(t, reports[i])
		assert.Equal(t, reports[0].Forecast, reports[i].Forecast)
		assert.Equal(t, reports[0].Audit, reports[i].Audit)
		assert.Equal(t, fixed, reports[i].GeneratedAt)
	}
}

func TestRun_OptionsShapeTheReport(t *testing.T) {
	opts := DefaultOptions()
	opts.Granularity = domain.GranularityWeek
	opts.Horizon = 3
	opts.Metric = domain.MetricUnits
	opts.OutlierFiltering = false
	opts.TopProducts = 0

	report, err := NewManager(nil).Run(context.Background(), scenarioTable(), opts)
	require.NoError(t, err)

	assert.Equal(t, domain.GranularityWeek, report.Series.Granularity)
	assert.Equal(t, domain.MetricUnits, report.Metric)
	assert.Equal(t, domain.MetricUnits, report.Forecast.Metric)
	assert.Len(t, report.Forecast.Points, 3)
	assert.Empty(t, report.TopProducts)
	assert.Equal(t, domain.OutlierFilterDisabled, report.Audit.OutlierFiltering)
	assert.Equal(t, 0, report.Audit.Dropped[domain.DropOutlier])
	// 15 weekly periods are short of two 52-week cycles.
	assert.Nil(t, report.Decomposition)
}

func TestOptionsWithDefaults(t *testing.T) {
	got := Options{}.withDefaults()
	want := DefaultOptions()
	want.OutlierFiltering = false
	want.DropCancelled = false
	want.TopProducts = 0
	assert.Equal(t, want, got)
}

func TestOptionsFromConfigCarriesOutlierPasses(t *testing.T) {
	cfg := config.Default().Pipeline
	cfg.OutlierPasses = 1

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, 1, opts.OutlierPasses)
	assert.Equal(t, 1, opts.cleaningOptions().MaxOutlierPasses)
}

func TestSteps(t *testing.T) {
	steps := NewManager(nil).Steps()
	require.Len(t, steps, 5)
	assert.Equal(t, StageIDNormalize, steps[0].ID())
	assert.Equal(t, StageNameForecast, steps[4].Name())
}
