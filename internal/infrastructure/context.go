package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type contextKey string

const (
	// TraceIDContextKey carries the request or client trace ID.
	TraceIDContextKey contextKey = "trace_id"
	// RunIDContextKey carries the pipeline run ID.
	RunIDContextKey contextKey = "run_id"
)

// GenerateTraceID returns a random UUID v4.
func GenerateTraceID() string {
	return uuid.NewString()
}

// WithTraceID stores traceID in ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID returns the trace ID in ctx, or "".
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDContextKey).(string)
	return traceID
}

// EnsureTraceID returns ctx unchanged if it already has a trace ID.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) == "" {
		return WithTraceID(ctx, GenerateTraceID())
	}
	return ctx
}

// WithRunID tags ctx with a pipeline run so that every log line written
// during the run can be correlated.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDContextKey, runID)
}

// GetRunID returns the run ID in ctx, or "".
func GetRunID(ctx context.Context) string {
	runID, _ := ctx.Value(RunIDContextKey).(string)
	return runID
}

func correlationAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var attrs []slog.Attr
	if traceID := GetTraceID(ctx); traceID != "" {
		attrs = append(attrs, slog.String(string(TraceIDContextKey), traceID))
	}
	if runID := GetRunID(ctx); runID != "" {
		attrs = append(attrs, slog.String(string(RunIDContextKey), runID))
	}
	return attrs
}
