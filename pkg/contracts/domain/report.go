package domain

import "time"

// Summary holds headline KPIs over the whole cleaned set.
type Summary struct {
	TotalRevenue      float64   `json:"total_revenue"`
	TotalOrders       int       `json:"total_orders"`
	AverageOrderValue float64   `json:"average_order_value"`
	UniqueCustomers   int       `json:"unique_customers"`
	UnitsSold         int64     `json:"units_sold"`
	FirstTransaction  time.Time `json:"first_transaction"`
	LastTransaction   time.Time `json:"last_transaction"`
}

// ProductSales ranks a product by revenue. ProductID is empty when the
// product is known only by its description.
type ProductSales struct {
	ProductID   string  `json:"product_id,omitempty"`
	Description string  `json:"description,omitempty"`
	Revenue     float64 `json:"revenue"`
	Units       int64   `json:"units"`
	Orders      int     `json:"orders"`
}

// CountrySales totals one country.
type CountrySales struct {
	Country string  `json:"country"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

// StageTiming records how a pipeline stage ended.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Status   string        `json:"status"`
	Duration time.Duration `json:"duration_ns"`
	Note     string        `json:"note,omitempty"`
}

// AnalysisReport is the result bundle handed to hosts.
type AnalysisReport struct {
	RunID         string         `json:"run_id"`
	GeneratedAt   time.Time      `json:"generated_at"`
	Metric        Metric         `json:"metric"`
	Mapping       SchemaMapping  `json:"mapping"`
	Audit         CleaningAudit  `json:"audit"`
	Summary       Summary        `json:"summary"`
	TopProducts   []ProductSales `json:"top_products,omitempty"`
	Countries     []CountrySales `json:"countries,omitempty"`
	Series        KpiSeries      `json:"series"`
	Decomposition *Decomposition `json:"decomposition"`
	Forecast      ForecastResult `json:"forecast"`
	Stages        []StageTiming  `json:"stages"`
}
