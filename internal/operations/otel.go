package operations

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/infrastructure"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

const (
	TracerName = "sales-analytics.operations"
)

// OperationTracer provides OpenTelemetry instrumentation for pipeline runs.
// The zero value and nil receivers trace nothing.
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewOperationTracer creates a tracer on the given providers. Either
// argument may be nil.
func NewOperationTracer(providers *infrastructure.OTelProviders, metrics *infrastructure.PipelineMetrics) *OperationTracer {
	var tracer trace.Tracer = noop.NewTracerProvider().Tracer(TracerName)
	if providers != nil && providers.TracerProvider != nil {
		tracer = providers.TracerProvider.Tracer(TracerName)
	}
	return &OperationTracer{tracer: tracer, metrics: metrics}
}

func (t *OperationTracer) spanTracer() trace.Tracer {
	if t == nil || t.tracer == nil {
		return noop.NewTracerProvider().Tracer(TracerName)
	}
	return t.tracer
}

func (t *OperationTracer) pipelineMetrics() *infrastructure.PipelineMetrics {
	if t == nil {
		return nil
	}
	return t.metrics
}

// StartRun creates the span covering a whole run.
func (t *OperationTracer) StartRun(ctx context.Context, runID string, opts Options, rows int) (context.Context, trace.Span) {
	ctx, span := t.spanTracer().Start(ctx, "analysis.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.input_rows", rows),
			attribute.String("run.metric", string(opts.Metric)),
			attribute.String("run.granularity", string(opts.Granularity)),
			attribute.Int("run.horizon", opts.Horizon),
			attribute.Bool("run.outlier_filtering", opts.OutlierFiltering),
		),
	)
	t.pipelineMetrics().RunStarted(ctx)
	return ctx, span
}

// EndRun closes the run span and records run metrics.
func (t *OperationTracer) EndRun(ctx context.Context, span trace.Span, status string, rows int, d time.Duration, err error) {
	span.SetAttributes(
		attribute.String("run.status", status),
		attribute.Float64("run.duration_seconds", d.Seconds()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
	t.pipelineMetrics().RecordRun(ctx, status, rows, d)
}

// RecordReport adds the outcome of a successful run to the span and metrics.
func (t *OperationTracer) RecordReport(ctx context.Context, span trace.Span, report *domain.AnalysisReport) {
	span.SetAttributes(
		attribute.Int("run.output_rows", report.Audit.OutputRows),
		attribute.Int("run.dropped_rows", report.Audit.TotalDropped()),
		attribute.Int("run.periods", report.Series.Len()),
		attribute.String("run.granularity", string(report.Series.Granularity)),
		attribute.String("forecast.model", string(report.Forecast.Model)),
		attribute.Float64("forecast.score", report.Forecast.Score),
	)
	m := t.pipelineMetrics()
	m.RecordAudit(ctx, report.Audit)
	m.RecordModelSelection(ctx, report.Forecast.Model, report.Forecast.Metric)
}

// StartStage creates a child span for one step.
func (t *OperationTracer) StartStage(ctx context.Context, runID, stageID string) (context.Context, trace.Span) {
	return t.spanTracer().Start(ctx, "analysis.stage."+stageID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("stage.id", stageID),
		),
	)
}

// EndStage closes a step span and records its duration.
func (t *OperationTracer) EndStage(ctx context.Context, span trace.Span, stageID string, status StepStatus, d time.Duration, note string, err error) {
	span.SetAttributes(
		attribute.String("stage.status", string(status)),
		attribute.Float64("stage.duration_seconds", d.Seconds()),
	)
	if note != "" {
		span.AddEvent("stage.note", trace.WithAttributes(attribute.String("note", note)))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	t.pipelineMetrics().RecordStage(ctx, stageID, string(status), d)
}
