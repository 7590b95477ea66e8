package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/middleware"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/operations"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/services"
	api "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/api/v1"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

// multipartMemory is held in memory before parts spill to temp files.
const multipartMemory = 8 << 20

// AnalysisService is the part of services.AnalysisService the handler uses.
type AnalysisService interface {
	DefaultOptions() operations.Options
	Analyze(ctx context.Context, up services.Upload) (*domain.AnalysisReport, error)
	Report(runID string) (*domain.AnalysisReport, error)
	Reports() []*domain.AnalysisReport
	Export(report *domain.AnalysisReport, format services.ExportFormat, w io.Writer) error
}

// AnalysisHandler serves the analyses resource.
type AnalysisHandler struct {
	service       AnalysisService
	errorHandler  *apperrors.ErrorHandler
	validate      *validator.Validate
	maxUploadSize int64
	logger        *slog.Logger
}

// NewAnalysisHandler creates the handler. maxUploadSize bounds request
// bodies; zero disables the limit.
func NewAnalysisHandler(service AnalysisService, errorHandler *apperrors.ErrorHandler, maxUploadSize int64, logger *slog.Logger) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{
		service:       service,
		errorHandler:  errorHandler,
		validate:      newValidator(),
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("handler", "analysis")),
	}
}

// Routes returns the analyses router.
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		if h.maxUploadSize > 0 {
			r.Use(middleware.MaxBodySize(h.maxUploadSize))
		}
		r.With(middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data")).
			Post("/", h.CreateAnalysis)
		r.With(middleware.ContentTypeValidator(h.errorHandler, "application/json")).
			Post("/export", h.ExportPosted)
	})

	r.Get("/", h.ListAnalyses)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetAnalysis)
		r.Get("/export", h.ExportStored)
	})
	return r
}

// CreateAnalysis handles POST /api/v1/analyses.
func (h *AnalysisHandler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.maxUploadSize > 0 && r.ContentLength > h.maxUploadSize {
		h.errorHandler.HandleError(w, r, apperrors.ErrPayloadTooLarge)
		return
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.errorHandler.HandleError(w, r, h.bodyError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apperrors.ErrValidation("file", "a CSV or XLSX file is required"))
		return
	}
	defer file.Close()

	params, errs := paramsFromValues(r.Form)
	if len(errs) == 0 {
		errs = validateParams(h.validate, params)
	}
	if len(errs) > 0 {
		h.errorHandler.HandleError(w, r, apperrors.NewValidationErrors(errs))
		return
	}

	opts := applyParams(h.service.DefaultOptions(), params)
	h.logger.InfoContext(ctx, "analysis requested",
		slog.String("file", header.Filename),
		slog.Int64("size", header.Size),
		slog.String("metric", string(opts.Metric)),
		slog.Int("horizon", opts.Horizon))

	start := time.Now()
	report, err := h.service.Analyze(ctx, services.Upload{
		Filename: header.Filename,
		Body:     file,
		Sheet:    params.Sheet,
		Options:  &opts,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "analysis completed",
		slog.String("run_id", report.RunID),
		slog.Duration("duration", time.Since(start)))

	w.Header().Set("Location", "/api/v1/analyses/"+report.RunID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, report)
}

// ListAnalyses handles GET /api/v1/analyses.
func (h *AnalysisHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	reports := h.service.Reports()
	list := api.AnalysisList{
		Analyses: make([]api.AnalysisSummary, 0, len(reports)),
		Total:    len(reports),
	}
	for _, rep := range reports {
		list.Analyses = append(list.Analyses, api.SummaryOf(rep))
	}
	render.JSON(w, r, list)
}

// GetAnalysis handles GET /api/v1/analyses/{id}.
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Report(chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// ExportStored handles GET /api/v1/analyses/{id}/export.
func (h *AnalysisHandler) ExportStored(w http.ResponseWriter, r *http.Request) {
	format, err := h.exportFormat(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	report, err := h.service.Report(chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeExport(w, r, report, format)
}

// ExportPosted handles POST /api/v1/analyses/export with a report JSON body.
func (h *AnalysisHandler) ExportPosted(w http.ResponseWriter, r *http.Request) {
	format, err := h.exportFormat(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var report domain.AnalysisReport
	if err := render.DecodeJSON(r.Body, &report); err != nil {
		h.errorHandler.HandleError(w, r, h.bodyError(err))
		return
	}
	if report.RunID == "" {
		h.errorHandler.HandleError(w, r, apperrors.ErrValidation("run_id", "report body must carry a run_id"))
		return
	}
	if d := report.Decomposition; d != nil {
		if err := d.CheckShape(); err != nil {
			h.errorHandler.HandleError(w, r, apperrors.ErrValidation("decomposition", err.Error()))
			return
		}
	}
	h.writeExport(w, r, &report, format)
}

func (h *AnalysisHandler) exportFormat(r *http.Request) (services.ExportFormat, error) {
	p := api.ExportParams{Format: r.URL.Query().Get("format")}
	if p.Format == "" {
		p.Format = string(services.ExportJSON)
	}
	if err := h.validate.Struct(p); err != nil {
		return "", apperrors.ErrValidation("format", "must be one of json, csv, xlsx")
	}
	return services.ParseExportFormat(p.Format)
}

// writeExport buffers the encoding so a failure can still produce a
// problem response.
func (h *AnalysisHandler) writeExport(w http.ResponseWriter, r *http.Request, report *domain.AnalysisReport, format services.ExportFormat) {
	var buf bytes.Buffer
	if err := h.service.Export(report, format, &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": format.FileName(report.RunID)}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write interrupted",
			slog.String("run_id", report.RunID),
			slog.String("error", err.Error()))
	}
}

// bodyError classifies request body failures.
func (h *AnalysisHandler) bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.ErrPayloadTooLarge
	}
	return apperrors.InvalidRequestWithError(err)
}
