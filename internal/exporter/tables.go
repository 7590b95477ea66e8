package exporter

import (
	"fmt"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

// Table is one flattened section of a report. Cells hold typed values so
// each writer can render them natively.
type Table struct {
	Name    string
	File    string
	Headers []string
	Rows    [][]any
}

// Records renders the rows as CSV text.
func (t Table) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(row))
		for j, c := range row {
			rec[j] = formatCell(c)
		}
		out[i] = rec
	}
	return out
}

// Table names double as workbook sheet names.
const (
	TableSummary       = "Summary"
	TableKPIs          = "KPIs"
	TableDecomposition = "Decomposition"
	TableForecast      = "Forecast"
	TableAudit         = "Audit"
	TableCandidates    = "Candidates"
	TableProducts      = "Products"
	TableCountries     = "Countries"
)

// Tables flattens a report in workbook sheet order. The decomposition table
// is omitted when the run skipped decomposition.
func Tables(r *domain.AnalysisReport) []Table {
	tables := []Table{
		summaryTable(r),
		kpiTable(r),
	}
	if r.Decomposition != nil {
		tables = append(tables, decompositionTable(r))
	}
	tables = append(tables,
		forecastTable(r),
		auditTable(r),
		candidatesTable(r),
		productsTable(r),
		countriesTable(r),
	)
	return tables
}

// CSVTables returns the tables shipped as CSV files.
func CSVTables(r *domain.AnalysisReport) []Table {
	var out []Table
	for _, t := range Tables(r) {
		if t.File != "" {
			out = append(out, t)
		}
	}
	return out
}

func summaryTable(r *domain.AnalysisReport) Table {
	s := r.Summary
	f := r.Forecast
	rows := [][]any{
		{"run_id", r.RunID},
		{"generated_at", r.GeneratedAt},
		{"metric", string(r.Metric)},
		{"granularity", string(r.Series.Granularity)},
		{"periods", r.Series.Len()},
		{"total_revenue", s.TotalRevenue},
		{"total_orders", s.TotalOrders},
		{"average_order_value", s.AverageOrderValue},
		{"unique_customers", s.UniqueCustomers},
		{"units_sold", s.UnitsSold},
		{"first_transaction", s.FirstTransaction},
		{"last_transaction", s.LastTransaction},
		{"model", string(f.Model)},
		{"score_metric", string(f.ScoreMetric)},
		{"score", ratio(f.Score)},
		{"holdout_size", f.HoldoutSize},
		{"seasonal", f.Seasonal},
	}
	for _, st := range r.Stages {
		rows = append(rows, []any{"stage_" + st.Stage, fmt.Sprintf("%s (%s)", st.Status, st.Duration)})
	}
	return Table{Name: TableSummary, Headers: []string{"item", "value"}, Rows: rows}
}

func kpiTable(r *domain.AnalysisReport) Table {
	growth := r.Series.GrowthPct(r.Metric)
	rows := make([][]any, len(r.Series.Points))
	for i, p := range r.Series.Points {
		rows[i] = []any{p.PeriodStart, p.Revenue, p.Units, p.Orders, p.Filled, growth[i]}
	}
	return Table{
		Name:    TableKPIs,
		File:    "kpi_series.csv",
		Headers: []string{"period_start", "revenue", "units", "orders", "filled", "growth_pct"},
		Rows:    rows,
	}
}

func decompositionTable(r *domain.AnalysisReport) Table {
	d := r.Decomposition
	rows := make([][]any, len(d.Observed))
	for i := range d.Observed {
		var start any
		if i < len(r.Series.Points) {
			start = r.Series.Points[i].PeriodStart
		}
		rows[i] = []any{start, d.Observed[i], d.Trend[i], ratio(d.Seasonal[i]), ratio(d.Residual[i])}
	}
	return Table{
		Name:    TableDecomposition,
		File:    "decomposition.csv",
		Headers: []string{"period_start", "observed", "trend", "seasonal", "residual"},
		Rows:    rows,
	}
}

func forecastTable(r *domain.AnalysisReport) Table {
	rows := make([][]any, len(r.Forecast.Points))
	for i, p := range r.Forecast.Points {
		rows[i] = []any{p.Step, p.PeriodStart, p.Value, p.Lower, p.Upper}
	}
	return Table{
		Name:    TableForecast,
		File:    "forecast.csv",
		Headers: []string{"step", "period_start", "forecast", "lower", "upper"},
		Rows:    rows,
	}
}

func auditTable(r *domain.AnalysisReport) Table {
	a := r.Audit
	rows := [][]any{
		{"input_rows", a.InputRows},
		{"output_rows", a.OutputRows},
	}
	for _, reason := range domain.DropReasons {
		rows = append(rows, []any{"dropped_" + string(reason), a.Dropped[reason]})
	}
	rows = append(rows,
		[]any{"outlier_filtering", string(a.OutlierFiltering)},
		[]any{"filled_optional", a.FilledOptional},
	)
	if b := a.OutlierBounds; b != nil {
		rows = append(rows,
			[]any{"outlier_q1", b.Q1},
			[]any{"outlier_q3", b.Q3},
			[]any{"outlier_iqr", b.IQR},
			[]any{"outlier_multiplier", ratio(b.Multiplier)},
			[]any{"outlier_lower", b.Lower},
			[]any{"outlier_upper", b.Upper},
			[]any{"outlier_passes", b.Passes},
		)
	}
	for _, s := range a.Steps {
		rows = append(rows,
			[]any{"step_" + s.Step + "_removed", s.Removed},
			[]any{"step_" + s.Step + "_remaining", s.Remaining},
		)
	}
	return Table{Name: TableAudit, File: "audit.csv", Headers: []string{"item", "value"}, Rows: rows}
}

func candidatesTable(r *domain.AnalysisReport) Table {
	rows := make([][]any, len(r.Forecast.Candidates))
	for i, c := range r.Forecast.Candidates {
		rows[i] = []any{string(c.Model), ratio(c.Score), string(r.Forecast.ScoreMetric), c.Model == r.Forecast.Model, c.Excluded, c.Error}
	}
	return Table{
		Name:    TableCandidates,
		Headers: []string{"model", "score", "score_metric", "selected", "excluded", "error"},
		Rows:    rows,
	}
}

func productsTable(r *domain.AnalysisReport) Table {
	rows := make([][]any, len(r.TopProducts))
	for i, p := range r.TopProducts {
		rows[i] = []any{i + 1, p.ProductID, p.Description, p.Revenue, p.Units, p.Orders}
	}
	return Table{
		Name:    TableProducts,
		Headers: []string{"rank", "product_id", "description", "revenue", "units", "orders"},
		Rows:    rows,
	}
}

func countriesTable(r *domain.AnalysisReport) Table {
	rows := make([][]any, len(r.Countries))
	for i, c := range r.Countries {
		rows[i] = []any{i + 1, c.Country, c.Revenue, c.Orders}
	}
	return Table{
		Name:    TableCountries,
		Headers: []string{"rank", "country", "revenue", "orders"},
		Rows:    rows,
	}
}
