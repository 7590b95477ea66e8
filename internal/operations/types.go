package operations

// Step identifiers
const (
	StageIDNormalize = "normalize"
	StageIDClean     = "clean"
	StageIDAggregate = "aggregate"
	StageIDDecompose = "decompose"
	StageIDForecast  = "forecast"
)

// Step names
const (
	StageNameNormalize = "Schema Normalization"
	StageNameClean     = "Data Cleaning"
	StageNameAggregate = "KPI Aggregation"
	StageNameDecompose = "Seasonal Decomposition"
	StageNameForecast  = "Forecasting"
)

// Run outcomes used for metrics and span attributes.
const (
	RunStatusSuccess   = "success"
	RunStatusFailed    = "failed"
	RunStatusCancelled = "cancelled"
)
