// Package services implements the business logic layer between the HTTP
// handlers and the analysis pipeline.
//
// AnalysisService ingests an upload, runs the pipeline under a deadline,
// keeps the most recent reports in memory and renders them for export.
// HealthService reports liveness, readiness and version information.
//
//	svc := services.NewAnalysisService(manager, services.AnalysisConfig{
//		Defaults: operations.OptionsFromConfig(cfg.Pipeline),
//		Timeout:  cfg.Server.AnalysisTimeout,
//	}, logger)
//	report, err := svc.Analyze(ctx, services.Upload{Filename: "orders.csv", Body: f})
package services
