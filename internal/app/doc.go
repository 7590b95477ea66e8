// Package app wires the sales analytics service together and manages its
// lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, the YAML file and the environment
//	2. Initialize logging and OpenTelemetry
//	3. Create the pipeline manager, websocket hub and services
//	4. Build the chi router and HTTP server
//	5. Serve until SIGINT/SIGTERM, then shut down gracefully
package app
