// Package stats holds the small numeric helpers shared by the cleaning and
// forecasting stages: linear-interpolation quantiles, sample moments, ordinary
// least squares and forecast error measures.
package stats
