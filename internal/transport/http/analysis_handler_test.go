package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/operations"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/services"
	api "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/api/v1"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

type mockAnalysisService struct {
	mock.Mock
}

func (m *mockAnalysisService) DefaultOptions() operations.Options {
	return m.Called().Get(0).(operations.Options)
}

func (m *mockAnalysisService) Analyze(ctx context.Context, up services.Upload) (*domain.AnalysisReport, error) {
	args := m.Called(ctx, up)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisReport), args.Error(1)
}

func (m *mockAnalysisService) Report(runID string) (*domain.AnalysisReport, error) {
	args := m.Called(runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisReport), args.Error(1)
}

func (m *mockAnalysisService) Reports() []*domain.AnalysisReport {
	return m.Called().Get(0).([]*domain.AnalysisReport)
}

func (m *mockAnalysisService) Export(report *domain.AnalysisReport, format services.ExportFormat, w io.Writer) error {
	return m.Called(report, format, w).Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newAnalysisRouter(svc AnalysisService, maxUpload int64) http.Handler {
	logger := discardLogger()
	h := NewAnalysisHandler(svc, apperrors.NewErrorHandler(logger, false), maxUpload, logger)
	r := chi.NewRouter()
	r.Mount("/api/v1/analyses", h.Routes())
	return r
}

func uploadRequest(t *testing.T, target, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func sampleReport(id string) *domain.AnalysisReport {
	return &domain.AnalysisReport{
		RunID:       id,
		GeneratedAt: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
		Metric:      domain.MetricRevenue,
		Audit:       domain.CleaningAudit{InputRows: 30, OutputRows: 30},
		Series:      domain.KpiSeries{Granularity: domain.GranularityDay},
		Forecast:    domain.ForecastResult{Model: domain.ModelLinearTrend},
	}
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem), rec.Body.String())
	return problem
}

const csvBody = "Order ID,Order Date,Total\nA1,2024-03-04,$100.00\n"

func TestCreateAnalysis(t *testing.T) {
	svc := new(mockAnalysisService)
	svc.On("DefaultOptions").Return(operations.DefaultOptions())
	var (
		got  services.Upload
		body []byte
	)
	svc.On("Analyze", mock.Anything, mock.AnythingOfType("services.Upload")).Run(func(args mock.Arguments) {
		got = args.Get(1).(services.Upload)
		body, _ = io.ReadAll(got.Body)
	}).Return(sampleReport("run-1"), nil)

	req := uploadRequest(t, "/api/v1/analyses?metric=units", "sales.csv", csvBody, map[string]string{
		"horizon":           "6",
		"outlier_filtering": "false",
		"role.timestamp":    "Order Date",
	})
	rec := httptest.NewRecorder()
	newAnalysisRouter(svc, 0).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/v1/analyses/run-1", rec.Header().Get("Location"))

	var report domain.AnalysisReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, domain.ModelLinearTrend, report.Forecast.Model)
	svc.AssertExpectations(t)

	assert.Equal(t, "sales.csv", got.Filename)
	assert.Equal(t, csvBody, string(body))
	require.NotNil(t, got.Options)
	assert.Equal(t, 6, got.Options.Horizon)
	assert.Equal(t, domain.MetricUnits, got.Options.Metric)
	assert.False(t, got.Options.OutlierFiltering)
	assert.Equal(t, domain.RoleTimestamp, got.Options.RoleOverrides["Order Date"])
}

func TestCreateAnalysisRejectsBadInput(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		fields     map[string]string
		wantStatus int
		wantField  string
	}{
		{name: "missing file", fields: map[string]string{"horizon": "3"}, wantStatus: http.StatusBadRequest},
		{name: "non numeric horizon", filename: "s.csv", fields: map[string]string{"horizon": "soon"}, wantStatus: http.StatusBadRequest, wantField: "horizon"},
		{name: "horizon below one", filename: "s.csv", fields: map[string]string{"horizon": "0"}, wantStatus: http.StatusBadRequest, wantField: "horizon"},
		{name: "unknown metric", filename: "s.csv", fields: map[string]string{"metric": "profit"}, wantStatus: http.StatusBadRequest, wantField: "metric"},
		{name: "unknown granularity", filename: "s.csv", fields: map[string]string{"granularity": "year"}, wantStatus: http.StatusBadRequest, wantField: "granularity"},
		{name: "bad boolean", filename: "s.csv", fields: map[string]string{"drop_cancelled": "maybe"}, wantStatus: http.StatusBadRequest, wantField: "drop_cancelled"},
		{name: "unknown role", filename: "s.csv", fields: map[string]string{"role.profit": "Margin"}, wantStatus: http.StatusBadRequest, wantField: "role.profit"},
		{name: "role without column", filename: "s.csv", fields: map[string]string{"role.amount": " "}, wantStatus: http.StatusBadRequest, wantField: "role.amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockAnalysisService)
			rec := httptest.NewRecorder()
			newAnalysisRouter(svc, 0).ServeHTTP(rec, uploadRequest(t, "/api/v1/analyses", tt.filename, csvBody, tt.fields))

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			problem := decodeProblem(t, rec)
			assert.Equal(t, "VALIDATION_FAILED", problem["error_code"])
			if tt.wantField != "" {
				assert.Contains(t, rec.Body.String(), `"field":"`+tt.wantField+`"`)
			}
			svc.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateAnalysisContentType(t *testing.T) {
	svc := new(mockAnalysisService)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(csvBody))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	newAnalysisRouter(svc, 0).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	svc.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestCreateAnalysisPayloadTooLarge(t *testing.T) {
	svc := new(mockAnalysisService)
	req := uploadRequest(t, "/api/v1/analyses", "big.csv", strings.Repeat("x", 4096), nil)
	rec := httptest.NewRecorder()
	newAnalysisRouter(svc, 1024).ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", decodeProblem(t, rec)["error_code"])
}

func TestCreateAnalysisServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{name: "schema", err: apperrors.NewSchemaError("no timestamp column"), wantStatus: http.StatusUnprocessableEntity, wantType: string(apperrors.ErrTypeSchema)},
		{name: "insufficient data", err: apperrors.NewInsufficientDataError(3, 1), wantStatus: http.StatusUnprocessableEntity, wantType: string(apperrors.ErrTypeInsufficientData)},
		{name: "unreadable file", err: apperrors.NewParsingError("unsupported file extension", nil), wantStatus: http.StatusBadRequest, wantType: string(apperrors.ErrTypeParsing)},
		{name: "deadline", err: context.DeadlineExceeded, wantStatus: http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockAnalysisService)
			svc.On("DefaultOptions").Return(operations.DefaultOptions())
			svc.On("Analyze", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := httptest.NewRecorder()
			newAnalysisRouter(svc, 0).ServeHTTP(rec, uploadRequest(t, "/api/v1/analyses", "s.csv", csvBody, nil))

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, decodeProblem(t, rec)["error_type"])
			}
		})
	}
}

func TestListAnalyses(t *testing.T) {
	svc := new(mockAnalysisService)
	svc.On("Reports").Return([]*domain.AnalysisReport{sampleReport("b"), sampleReport("a")})

	rec := httptest.NewRecorder()
	newAnalysisRouter(svc, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var list api.AnalysisList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 2, list.Total)
	assert.Equal(t, "b", list.Analyses[0].RunID)
	assert.Equal(t, 30, list.Analyses[0].Rows)
	assert.Equal(t, "day", list.Analyses[0].Granularity)
}

func TestGetAnalysis(t *testing.T) {
	svc := new(mockAnalysisService)
	svc.On("Report", "known").Return(sampleReport("known"), nil)
	svc.On("Report", "missing").Return(nil, apperrors.NewNotFoundError("analysis missing"))
	router := newAnalysisRouter(svc, 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analyses/known", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run_id":"known"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analyses/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportStored(t *testing.T) {
	tests := []struct {
		name            string
		query           string
		format          services.ExportFormat
		wantType        string
		wantDisposition string
	}{
		{name: "default json", query: "", format: services.ExportJSON, wantType: "application/json", wantDisposition: "sales-analysis-r1.json"},
		{name: "csv bundle", query: "?format=csv", format: services.ExportCSV, wantType: "application/zip", wantDisposition: "sales-analysis-r1.zip"},
		{name: "workbook", query: "?format=xlsx", format: services.ExportXLSX, wantType: services.ExportXLSX.ContentType(), wantDisposition: "sales-analysis-r1.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := sampleReport("r1")
			svc := new(mockAnalysisService)
			svc.On("Report", "r1").Return(report, nil)
			svc.On("Export", report, tt.format, mock.Anything).Run(func(args mock.Arguments) {
				_, _ = args.Get(2).(io.Writer).Write([]byte("payload"))
			}).Return(nil)

			rec := httptest.NewRecorder()
			newAnalysisRouter(svc, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analyses/r1/export"+tt.query, nil))

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("Content-Disposition"), tt.wantDisposition)
			assert.Equal(t, "7", rec.Header().Get("Content-Length"))
			assert.Equal(t, "payload", rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestExportStoredErrors(t *testing.T) {
	svc := new(mockAnalysisService)
	svc.On("Report", "gone").Return(nil, apperrors.NewNotFoundError("analysis gone"))
	router := newAnalysisRouter(svc, 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analyses/r1/export?format=pdf", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analyses/gone/export?format=csv", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc.AssertNotCalled(t, "Export", mock.Anything, mock.Anything, mock.Anything)
}

func TestExportPosted(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
	}{
		{name: "valid report", body: `{"run_id":"posted","metric":"revenue","decomposition":null}`, wantStatus: http.StatusOK},
		{name: "missing run id", body: `{"metric":"revenue"}`, wantStatus: http.StatusBadRequest},
		{name: "malformed json", body: `{"run_id":`, wantStatus: http.StatusBadRequest},
		{
			name:       "consistent decomposition",
			body:       `{"run_id":"posted","metric":"revenue","decomposition":{"period":2,"observed":[1,2,3],"trend":[null,2,null],"seasonal":[1,2,1],"residual":[null,0,null],"seasonal_factors":[1,2]}}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "decomposition without trend",
			body:       `{"run_id":"posted","metric":"revenue","decomposition":{"period":1,"observed":[1,2,3],"seasonal_factors":[0]}}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "decomposition",
		},
		{
			name:       "short residual",
			body:       `{"run_id":"posted","metric":"revenue","decomposition":{"period":1,"observed":[1,2],"trend":[1,2],"seasonal":[0,0],"residual":[0],"seasonal_factors":[0]}}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "decomposition",
		},
		{
			name:       "seasonal factors off period",
			body:       `{"run_id":"posted","metric":"revenue","decomposition":{"period":3,"observed":[1],"trend":[1],"seasonal":[0],"residual":[0],"seasonal_factors":[0]}}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "decomposition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockAnalysisService)
			svc.On("Export", mock.MatchedBy(func(r *domain.AnalysisReport) bool {
				return r.RunID == "posted" && r.Metric == domain.MetricRevenue
			}), services.ExportXLSX, mock.Anything).Return(nil)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses/export?format=xlsx", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			newAnalysisRouter(svc, 0).ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, rec.Header().Get("Content-Disposition"), "sales-analysis-posted.xlsx")
				svc.AssertExpectations(t)
			} else {
				svc.AssertNotCalled(t, "Export", mock.Anything, mock.Anything, mock.Anything)
			}
			if tt.wantField != "" {
				assert.Contains(t, rec.Body.String(), `"field":"`+tt.wantField+`"`)
			}
		})
	}
}

func TestExportDispositionEscapesRunID(t *testing.T) {
	tests := []struct {
		name  string
		runID string
	}{
		{name: "quote", runID: `a"b`},
		{name: "semicolon and space", runID: "x; filename=evil.exe"},
		{name: "non ascii", runID: "café"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockAnalysisService)
			svc.On("Export", mock.Anything, services.ExportJSON, mock.Anything).Return(nil)

			body, err := json.Marshal(map[string]string{"run_id": tt.runID})
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses/export", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			newAnalysisRouter(svc, 0).ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			disposition, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
			require.NoError(t, err)
			assert.Equal(t, "attachment", disposition)
			assert.Equal(t, "sales-analysis-"+tt.runID+".json", params["filename"])
		})
	}
}

func TestExportFailureRendersProblem(t *testing.T) {
	report := sampleReport("r1")
	svc := new(mockAnalysisService)
	svc.On("Report", "r1").Return(report, nil)
	svc.On("Export", report, services.ExportXLSX, mock.Anything).
		Return(apperrors.NewStorageError("workbook encoding failed", nil))

	rec := httptest.NewRecorder()
	newAnalysisRouter(svc, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analyses/r1/export?format=xlsx", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}
