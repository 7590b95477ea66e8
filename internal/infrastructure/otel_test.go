package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestOTelInitialization(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *OTelConfig
		wantTracer  bool
		wantMetrics bool
	}{
		{name: "defaults", cfg: nil, wantTracer: true, wantMetrics: true},
		{
			name:       "tracing only",
			cfg:        &OTelConfig{ServiceName: "t", EnableTracing: true, TraceExporter: "none", SampleRatio: 1},
			wantTracer: true,
		},
		{
			name:        "metrics only",
			cfg:         &OTelConfig{ServiceName: "t", EnableMetrics: true},
			wantMetrics: true,
		},
		{name: "disabled", cfg: &OTelConfig{ServiceName: "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(tt.cfg, discardLogger())
			require.NoError(t, err)
			defer providers.Shutdown(context.Background())

			assert.NotNil(t, providers.Tracer)
			assert.NotNil(t, providers.Meter)
			assert.Equal(t, tt.wantTracer, providers.TracerProvider != nil)
			assert.Equal(t, tt.wantMetrics, providers.PrometheusHTTP != nil)
		})
	}
}

func TestOTelUnsupportedExporter(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{EnableTracing: true, TraceExporter: "jaeger"}, discardLogger())
	require.Error(t, err)
}

func TestTraceIDFromSpan(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{EnableTracing: true, TraceExporter: "none", SampleRatio: 1}, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := providers.Tracer.Start(context.Background(), "test-operation")
	defer span.End()

	assert.Equal(t, span.SpanContext().TraceID().String(), TraceIDFromContext(ctx))
	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestPipelineMetricsExported(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{ServiceName: "t", EnableMetrics: true}, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := NewPipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RunStarted(ctx)
	metrics.RecordRun(ctx, "success", 90, 250*time.Millisecond)
	metrics.RecordStage(ctx, "clean", "completed", 10*time.Millisecond)
	metrics.RecordAudit(ctx, domain.CleaningAudit{Dropped: map[domain.DropReason]int{
		domain.DropDuplicate: 2,
	}})
	metrics.RecordModelSelection(ctx, domain.ModelLinearTrend, domain.MetricRevenue)
	metrics.HTTPStarted(ctx)
	metrics.RecordHTTP(ctx, http.MethodPost, "/api/v1/analyses", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, want := range []string{
		"analysis_runs_total",
		"analysis_rows_dropped_total",
		`reason="duplicate"`,
		"forecast_model_selections_total",
		`model="linear_trend"`,
		"http_requests_total",
		"go_goroutines",
	} {
		assert.Contains(t, body, want)
	}
}

func TestNilPipelineMetrics(t *testing.T) {
	var m *PipelineMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RunStarted(ctx)
		m.RecordRun(ctx, "success", 1, time.Second)
		m.RecordStage(ctx, "clean", "completed", time.Second)
		m.RecordAudit(ctx, domain.CleaningAudit{})
		m.RecordModelSelection(ctx, domain.ModelNaiveSeasonal, domain.MetricUnits)
		m.HTTPStarted(ctx)
		m.RecordHTTP(ctx, http.MethodGet, "/", http.StatusOK, time.Second)
	})

	noop, err := NewPipelineMetrics(nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() { noop.RecordRun(ctx, "success", 1, time.Second) })
}
