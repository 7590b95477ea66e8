// Package config loads the application configuration.
//
// # Sources
//
// Values are layered, later sources winning:
//
//	1. Default() values
//	2. A YAML file (SALES_CONFIG_FILE, config.yaml or configs/config.yaml)
//	3. Environment variables prefixed with SALES_
//
// Nested sections map onto underscored variable names:
//
//	SALES_SERVER_PORT=8080
//	SALES_LOGGING_LEVEL=debug
//	SALES_PIPELINE_HORIZON=6
//	SALES_PIPELINE_OUTLIER_FILTERING=false
//	SALES_TELEMETRY_TRACE_EXPORTER=none
//
// # Example file
//
//	server:
//	  port: 8080
//	  analysis_timeout: 2m
//	pipeline:
//	  horizon: 12
//	  outlier_multiplier: 1.5
//	  top_products: 10
//	logging:
//	  level: info
//	  output: both
//	  file_path: logs/app.log
//
// Load validates the merged result and rejects out-of-range values with a
// CONFIG error.
package config
