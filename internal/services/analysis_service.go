package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/exporter"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/ingest"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/operations"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

// ExportFormat names a report encoding.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// ParseExportFormat validates a format name.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(s); f {
	case ExportJSON, ExportCSV, ExportXLSX:
		return f, nil
	}
	return "", apperrors.ErrUnsupportedFormat
}

// ContentType is the media type of an export.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportCSV:
		return "application/zip"
	case ExportXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/json"
}

// FileName is the download name for a run's export.
func (f ExportFormat) FileName(runID string) string {
	ext := string(f)
	if f == ExportCSV {
		ext = "zip"
	}
	return fmt.Sprintf("sales-analysis-%s.%s", runID, ext)
}

// AnalysisConfig tunes an AnalysisService.
type AnalysisConfig struct {
	Defaults       operations.Options
	Timeout        time.Duration
	ReportCapacity int
}

// Upload is one file handed to Analyze.
type Upload struct {
	Filename string
	Body     io.Reader
	// Sheet selects an XLSX sheet; empty picks the first with a header.
	Sheet   string
	Options *operations.Options
}

// AnalysisService runs the pipeline for uploads and keeps recent reports.
type AnalysisService struct {
	manager  *operations.Manager
	cfg      AnalysisConfig
	store    *reportStore
	workbook *exporter.WorkbookWriter
	logger   *slog.Logger
	active   atomic.Int64
	total    atomic.Int64
}

// NewAnalysisService creates the service.
func NewAnalysisService(manager *operations.Manager, cfg AnalysisConfig, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Defaults.Metric == "" {
		cfg.Defaults = operations.DefaultOptions()
	}
	logger = logger.With(slog.String("service", "analysis"))
	return &AnalysisService{
		manager:  manager,
		cfg:      cfg,
		store:    newReportStore(cfg.ReportCapacity),
		workbook: exporter.NewWorkbookWriter(logger),
		logger:   logger,
	}
}

// DefaultOptions returns the server's run options, for callers that overlay
// request parameters.
func (s *AnalysisService) DefaultOptions() operations.Options {
	opts := s.cfg.Defaults
	if opts.RoleOverrides != nil {
		overrides := make(map[string]domain.Role, len(opts.RoleOverrides))
		for k, v := range opts.RoleOverrides {
			overrides[k] = v
		}
		opts.RoleOverrides = overrides
	}
	return opts
}

// Analyze ingests the upload and runs the pipeline over it.
func (s *AnalysisService) Analyze(ctx context.Context, up Upload) (*domain.AnalysisReport, error) {
	format, err := ingest.DetectFormat(up.Filename)
	if err != nil {
		return nil, err
	}
	table, err := ingest.Read(up.Body, format, ingest.Options{Sheet: up.Sheet})
	if err != nil {
		s.logger.WarnContext(ctx, "upload rejected",
			slog.String("file", up.Filename),
			slog.String("error", err.Error()))
		return nil, err
	}

	opts := s.DefaultOptions()
	if up.Options != nil {
		opts = *up.Options
	}
	s.logger.InfoContext(ctx, "upload parsed",
		slog.String("file", up.Filename),
		slog.String("format", string(format)),
		slog.Int("rows", table.RowCount()),
		slog.Int("columns", len(table.Columns)))
	return s.AnalyzeTable(ctx, table, opts)
}

// AnalyzeTable runs the pipeline on an already ingested table under the
// configured timeout and records the report.
func (s *AnalysisService) AnalyzeTable(ctx context.Context, table *domain.RawTable, opts operations.Options) (*domain.AnalysisReport, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	s.active.Add(1)
	defer s.active.Add(-1)

	runID := uuid.NewString()
	report, err := s.manager.RunWithID(ctx, runID, table, opts)
	if err != nil {
		return nil, err
	}
	s.store.put(report)
	s.total.Add(1)
	return report, nil
}

// Report returns a stored report.
func (s *AnalysisService) Report(runID string) (*domain.AnalysisReport, error) {
	r, ok := s.store.get(runID)
	if !ok {
		return nil, apperrors.NewNotFoundError("analysis " + runID)
	}
	return r, nil
}

// Reports lists stored reports, newest first.
func (s *AnalysisService) Reports() []*domain.AnalysisReport {
	return s.store.list()
}

// Export renders a report in the requested format.
func (s *AnalysisService) Export(report *domain.AnalysisReport, format ExportFormat, w io.Writer) error {
	if report == nil {
		return apperrors.NewAppValidationError("report is required")
	}
	var err error
	switch format {
	case ExportJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(report)
	case ExportCSV:
		err = exporter.WriteZip(w, report)
	case ExportXLSX:
		err = s.workbook.Write(w, report)
	default:
		return apperrors.ErrUnsupportedFormat
	}
	if err != nil {
		return apperrors.NewStorageError("export failed", err)
	}
	s.logger.Info("report exported",
		slog.String("run_id", report.RunID),
		slog.String("format", string(format)))
	return nil
}

// Stats reports run counters for health checks.
func (s *AnalysisService) Stats() (active, completed int64, stored int) {
	return s.active.Load(), s.total.Load(), s.store.len()
}
