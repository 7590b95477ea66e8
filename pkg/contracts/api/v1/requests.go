// Package api contains the HTTP API contract of the sales analytics service.
// Version v1 represents the current stable API version.
package api

import (
	"time"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

// AnalysisParams are the run options accepted with an upload, either as
// multipart form fields or as query parameters. Nil pointers keep the
// server defaults.
type AnalysisParams struct {
	Granularity       string   `json:"granularity,omitempty" validate:"omitempty,oneof=day week month"`
	Horizon           *int     `json:"horizon,omitempty" validate:"omitempty,gte=1,lte=520"`
	Metric            string   `json:"metric,omitempty" validate:"omitempty,oneof=revenue units orders"`
	OutlierFiltering  *bool    `json:"outlier_filtering,omitempty"`
	OutlierMultiplier *float64 `json:"outlier_multiplier,omitempty" validate:"omitempty,gt=0,lte=10"`
	OutlierPasses     *int     `json:"outlier_passes,omitempty" validate:"omitempty,gte=0,lte=100"`
	DropCancelled     *bool    `json:"drop_cancelled,omitempty"`
	TopProducts       *int     `json:"top_products,omitempty" validate:"omitempty,gte=0,lte=1000"`
	// Sheet selects a workbook sheet for XLSX uploads.
	Sheet string `json:"sheet,omitempty" validate:"omitempty,max=31"`
	// Roles maps a role name to the source column carrying it, sent as
	// role.<name>=<column>.
	Roles map[string]string `json:"roles,omitempty" validate:"omitempty,dive,keys,oneof=timestamp amount quantity unit_price product_id customer_id order_id country description,endkeys,required"`
}

// ExportParams selects the export encoding.
type ExportParams struct {
	Format string `json:"format" validate:"required,oneof=json csv xlsx"`
}

// AnalysisSummary is one entry of the recent runs listing.
type AnalysisSummary struct {
	RunID       string         `json:"run_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Metric      domain.Metric  `json:"metric"`
	Granularity string         `json:"granularity"`
	Periods     int            `json:"periods"`
	Rows        int            `json:"rows"`
	Model       domain.ModelID `json:"model"`
}

// SummaryOf condenses a report for listings.
func SummaryOf(r *domain.AnalysisReport) AnalysisSummary {
	return AnalysisSummary{
		RunID:       r.RunID,
		GeneratedAt: r.GeneratedAt,
		Metric:      r.Metric,
		Granularity: string(r.Series.Granularity),
		Periods:     r.Series.Len(),
		Rows:        r.Audit.OutputRows,
		Model:       r.Forecast.Model,
	}
}

// AnalysisList is the response of the recent runs listing.
type AnalysisList struct {
	Analyses []AnalysisSummary `json:"analyses"`
	Total    int               `json:"total"`
}
