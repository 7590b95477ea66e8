// Package middleware holds the HTTP middleware chain for the analysis API:
// request IDs, structured request logging, panic recovery, rate limiting,
// CORS, security headers and OpenTelemetry instrumentation.
//
// Recommended order:
//
//	r.Use(middleware.RequestID)
//	r.Use(middleware.RealIP)
//	r.Use(otelMW.Handler)
//	r.Use(middleware.StructuredLogger(logger))
//	r.Use(middleware.Recoverer(errorHandler))
package middleware
