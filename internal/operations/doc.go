// Package operations runs the sales analysis pipeline.
//
// A Manager executes five steps strictly in order:
//
//	normalize  raw table to candidate transactions and a schema mapping
//	clean      cleaning rules and the audit
//	aggregate  KPI series, headline summary and top products
//	decompose  seasonal decomposition (skipped on short history)
//	forecast   model selection by holdout backtest and extrapolation
//
// Every step reads from and writes to a per-run RunState. The Manager holds
// only immutable collaborators, so concurrent Run calls share nothing.
//
// Each step records a StepState whose outcome ends up in the report's stage
// timings. An optional Observer receives a StageEvent for every transition,
// and an OperationTracer opens one span per run and per step.
//
// A run either returns a complete AnalysisReport or an error; partial
// results are never returned. The context is checked between steps.
package operations
