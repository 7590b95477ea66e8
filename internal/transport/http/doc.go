// Package http implements the REST handlers of the sales analytics service.
// Handlers are thin: they parse and validate the request, call a service and
// render the result. Failures are written as RFC 7807 problem documents by
// the shared error handler.
//
// # Endpoints
//
//	POST /api/v1/analyses                   upload a CSV or XLSX file and run the pipeline
//	GET  /api/v1/analyses                   list recent runs
//	GET  /api/v1/analyses/{id}              fetch a stored report
//	GET  /api/v1/analyses/{id}/export       download a stored report (format=json|csv|xlsx)
//	POST /api/v1/analyses/export            convert a posted report JSON into a download
//	GET  /api/v1/health[/ready|/live]       health probes
//	GET  /api/v1/version                    build information
//
// Run options travel as multipart form fields or query parameters:
//
//	granularity=week horizon=8 metric=units outlier_filtering=false
//	role.timestamp="Invoice Date" role.amount=Total
package http
