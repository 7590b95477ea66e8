package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/config"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

const (
	ServiceName    = "sales-analytics"
	ServiceVersion = config.AppVersion
	// InstrumentationName scopes every tracer and meter of the module.
	InstrumentationName = "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers. Tracer and Meter are
// always usable; they are no-ops when the matching signal is disabled.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	// PrometheusHTTP serves the scrape endpoint; nil without metrics.
	PrometheusHTTP http.Handler
	Registry       *prometheus.Registry
	Logger         *slog.Logger
}

// OTelConfigFrom maps the telemetry section of the application config.
func OTelConfigFrom(cfg config.TelemetryConfig) *OTelConfig {
	return &OTelConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    cfg.Environment,
		TraceExporter:  cfg.TraceExporter,
		EnableMetrics:  cfg.EnableMetrics,
		EnableTracing:  cfg.EnableTracing,
		SampleRatio:    cfg.SampleRatio,
	}
}

// DefaultOTelConfig returns a default OpenTelemetry configuration
func DefaultOTelConfig() *OTelConfig {
	return OTelConfigFrom(config.Default().Telemetry)
}

// InitializeOTel sets up tracing and metrics. Each call owns a private
// Prometheus registry so providers never collide.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = ServiceName
	}
	if logger == nil {
		logger = GetLogger()
	}

	ctx := context.Background()
	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res := createResource(cfg)

	providers := &OTelProviders{
		Tracer: otel.GetTracerProvider().Tracer(InstrumentationName),
		Meter:  noop.NewMeterProvider().Meter(InstrumentationName),
		Logger: logger,
	}

	if cfg.EnableTracing {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg *OTelConfig) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	)
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	}

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	case "none", "":
		// Spans are still recorded so trace IDs reach the logs.
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	tp := sdktrace.NewTracerProvider(opts...)
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))
	return nil
}

// initializeMetrics sets up OpenTelemetry metrics exported through Prometheus
func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.Registry = registry
	providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(InstrumentationName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetMeterProvider(mp)

	providers.Logger.InfoContext(ctx, "Metrics initialized", slog.String("exporter", "prometheus"))
	return nil
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// PipelineMetrics holds the instruments recorded by analysis runs and the
// HTTP layer. A nil *PipelineMetrics records nothing.
type PipelineMetrics struct {
	RunsTotal       metric.Int64Counter
	RunDuration     metric.Float64Histogram
	ActiveRuns      metric.Int64UpDownCounter
	StageDuration   metric.Float64Histogram
	RowsIngested    metric.Int64Counter
	RowsDropped     metric.Int64Counter
	ModelSelections metric.Int64Counter

	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	WSConnections     metric.Int64UpDownCounter
	WSMessagesSent    metric.Int64Counter
	WSMessagesDropped metric.Int64Counter
}

// NewPipelineMetrics creates the instruments on meter. A nil meter yields
// no-op instruments.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(InstrumentationName)
	}

	var (
		m    PipelineMetrics
		errs []error
	)
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return c
	}
	seconds := func(name, desc string) metric.Float64Histogram {
		h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		errs = append(errs, err)
		return h
	}
	gauge := func(name, desc string) metric.Int64UpDownCounter {
		g, err := meter.Int64UpDownCounter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return g
	}

	m.RunsTotal = counter("analysis_runs_total", "Total number of analysis runs by outcome")
	m.RunDuration = seconds("analysis_run_duration_seconds", "Analysis run duration in seconds")
	m.ActiveRuns = gauge("analysis_active_runs", "Number of analysis runs in progress")
	m.StageDuration = seconds("analysis_stage_duration_seconds", "Pipeline stage duration in seconds")
	m.RowsIngested = counter("analysis_rows_ingested_total", "Raw rows handed to the pipeline")
	m.RowsDropped = counter("analysis_rows_dropped_total", "Rows removed by the cleaner by reason")
	m.ModelSelections = counter("forecast_model_selections_total", "Forecast model selections by model")
	m.HTTPRequestsTotal = counter("http_requests_total", "Total number of HTTP requests")
	m.HTTPRequestDuration = seconds("http_request_duration_seconds", "HTTP request duration in seconds")
	m.HTTPActiveRequests = gauge("http_active_requests", "Number of active HTTP requests")
	m.WSConnections = gauge("websocket_connections", "Number of connected WebSocket clients")
	m.WSMessagesSent = counter("websocket_messages_sent_total", "Messages queued to WebSocket clients")
	m.WSMessagesDropped = counter("websocket_messages_dropped_total", "Messages dropped because a client buffer was full")

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &m, nil
}

// RunStarted increments the active run gauge.
func (m *PipelineMetrics) RunStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveRuns.Add(ctx, 1)
}

// RecordRun records a finished run. status is "success" or an error type.
func (m *PipelineMetrics) RecordRun(ctx context.Context, status string, rows int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.ActiveRuns.Add(ctx, -1)
	m.RunsTotal.Add(ctx, 1, attrs)
	m.RunDuration.Record(ctx, d.Seconds(), attrs)
	m.RowsIngested.Add(ctx, int64(rows))
}

// RecordStage records one stage outcome.
func (m *PipelineMetrics) RecordStage(ctx context.Context, stage, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
}

// RecordAudit adds the cleaner's drop counts.
func (m *PipelineMetrics) RecordAudit(ctx context.Context, audit domain.CleaningAudit) {
	if m == nil {
		return
	}
	for _, reason := range domain.DropReasons {
		if n := audit.Dropped[reason]; n > 0 {
			m.RowsDropped.Add(ctx, int64(n), metric.WithAttributes(attribute.String("reason", string(reason))))
		}
	}
}

// RecordModelSelection counts the model chosen for a forecast.
func (m *PipelineMetrics) RecordModelSelection(ctx context.Context, model domain.ModelID, metricName domain.Metric) {
	if m == nil {
		return
	}
	m.ModelSelections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", string(model)),
		attribute.String("metric", string(metricName)),
	))
}

// HTTPStarted increments the active request gauge.
func (m *PipelineMetrics) HTTPStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.HTTPActiveRequests.Add(ctx, 1)
}

// RecordHTTP records a completed HTTP request.
func (m *PipelineMetrics) RecordHTTP(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.String("http.status_code", strconv.Itoa(status)),
	)
	m.HTTPActiveRequests.Add(ctx, -1)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, d.Seconds(), attrs)
}

// WSConnected adjusts the connected client gauge by delta.
func (m *PipelineMetrics) WSConnected(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.WSConnections.Add(ctx, delta)
}

// RecordBroadcast records one fan-out by message type.
func (m *PipelineMetrics) RecordBroadcast(ctx context.Context, msgType string, delivered, dropped int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("type", msgType))
	if delivered > 0 {
		m.WSMessagesSent.Add(ctx, int64(delivered), attrs)
	}
	if dropped > 0 {
		m.WSMessagesDropped.Add(ctx, int64(dropped), attrs)
	}
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts the OpenTelemetry trace ID, if any.
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}
