package operations

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/infrastructure"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/events"
)

// Manager orchestrates pipeline runs. It is safe for concurrent use.
type Manager struct {
	steps    []Step
	tracer   *OperationTracer
	observer Observer
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithTracer instruments runs with spans and metrics.
func WithTracer(t *OperationTracer) ManagerOption {
	return func(m *Manager) { m.tracer = t }
}

// WithObserver receives stage events.
func WithObserver(o Observer) ManagerOption {
	return func(m *Manager) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager running the standard step sequence.
func NewManager(logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		steps:    defaultSteps(logger),
		observer: nopObserver{},
		validate: newValidator(),
		logger:   logger.With(slog.String("component", "operations")),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.tracer == nil {
		m.tracer = NewOperationTracer(nil, nil)
	}
	return m
}

// Steps returns the step sequence.
func (m *Manager) Steps() []Step {
	out := make([]Step, len(m.steps))
	copy(out, m.steps)
	return out
}

// Run executes the pipeline under a fresh run ID.
func (m *Manager) Run(ctx context.Context, table *domain.RawTable, opts Options) (*domain.AnalysisReport, error) {
	return m.RunWithID(ctx, uuid.NewString(), table, opts)
}

// RunWithID executes every step in order and assembles the report. It
// returns either a complete report or an error naming the failed step.
func (m *Manager) RunWithID(ctx context.Context, runID string, table *domain.RawTable, opts Options) (*domain.AnalysisReport, error) {
	if table == nil {
		return nil, NewValidationError(apperrors.NewAppValidationError("raw table is required"))
	}
	opts = opts.withDefaults()
	if err := validateOptions(m.validate, opts); err != nil {
		return nil, err
	}

	rows := table.RowCount()
	ctx = infrastructure.WithRunID(ctx, runID)
	ctx, span := m.tracer.StartRun(ctx, runID, opts, rows)
	start := time.Now()

	m.logger.InfoContext(ctx, "run started",
		slog.Int("rows", rows),
		slog.Int("columns", len(table.Columns)),
		slog.String("metric", string(opts.Metric)),
		slog.Int("horizon", opts.Horizon))

	state := newRunState(runID, table, opts)
	timings := make([]domain.StageTiming, 0, len(m.steps))

	var runErr error
	for i, step := range m.steps {
		if err := ctx.Err(); err != nil {
			runErr = NewCancellationError(step.ID(), err)
			break
		}
		timing, err := m.executeStep(ctx, state, step, i)
		timings = append(timings, timing)
		if err != nil {
			runErr = err
			break
		}
	}

	duration := time.Since(start)
	if runErr != nil {
		status := RunStatusFailed
		if IsCancellation(runErr) {
			status = RunStatusCancelled
		}
		m.logger.ErrorContext(ctx, "run failed",
			slog.String("status", status),
			slog.String("step", FailedStep(runErr)),
			slog.Duration("duration", duration),
			slog.String("error", runErr.Error()))
		m.tracer.EndRun(ctx, span, status, rows, duration, runErr)
		return nil, runErr
	}

	report := &domain.AnalysisReport{
		RunID:         runID,
		GeneratedAt:   m.now().UTC(),
		Metric:        opts.Metric,
		Mapping:       state.Mapping,
		Audit:         state.Audit,
		Summary:       state.Summary,
		TopProducts:   state.TopProducts,
		Countries:     state.Countries,
		Series:        *state.Series,
		Decomposition: state.Decomposition,
		Forecast:      *state.Forecast,
		Stages:        timings,
	}

	m.tracer.RecordReport(ctx, span, report)
	m.tracer.EndRun(ctx, span, RunStatusSuccess, rows, duration, nil)
	m.logger.InfoContext(ctx, "run completed",
		slog.Int("cleaned_rows", report.Audit.OutputRows),
		slog.Int("periods", report.Series.Len()),
		slog.String("model", string(report.Forecast.Model)),
		slog.Duration("duration", duration))
	return report, nil
}

// executeStep runs one step and reports its transitions.
func (m *Manager) executeStep(ctx context.Context, state *RunState, step Step, index int) (domain.StageTiming, error) {
	stepState := NewStepState(step.ID(), step.Name())
	stageCtx, span := m.tracer.StartStage(ctx, state.RunID, step.ID())
	defer func() {
		status, note := stepState.Snapshot()
		m.tracer.EndStage(stageCtx, span, step.ID(), status, stepState.Duration(), note, stepState.Error)
	}()

	stepState.Start()
	m.notify(ctx, state.RunID, stepState, index)
	m.logger.DebugContext(ctx, "stage started",
		slog.String("stage", step.ID()))

	err := step.Execute(stageCtx, state)
	if skip, ok := asSkip(err); ok {
		stepState.Skip(skip.Reason)
		m.logger.WarnContext(ctx, "stage skipped",
			slog.String("stage", step.ID()),
			slog.String("reason", skip.Reason))
		err = nil
	} else if err != nil {
		stepState.Fail(err)
	} else {
		stepState.Complete(state.NoteFor(step.ID()))
		m.logger.InfoContext(ctx, "stage completed",
			slog.String("stage", step.ID()),
			slog.String("note", state.NoteFor(step.ID())),
			slog.Duration("duration", stepState.Duration()))
	}
	m.notify(ctx, state.RunID, stepState, index)

	status, note := stepState.Snapshot()
	timing := domain.StageTiming{
		Stage:    step.ID(),
		Status:   string(status),
		Duration: stepState.Duration(),
		Note:     note,
	}
	if err == nil {
		return timing, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return timing, NewCancellationError(step.ID(), err)
	}
	return timing, NewExecutionError(step.ID(), err)
}

func (m *Manager) notify(ctx context.Context, runID string, s *StepState, index int) {
	status, note := s.Snapshot()
	event := events.StageEvent{
		RunID:   runID,
		Stage:   s.ID,
		Name:    s.Name,
		Status:  events.StageStatus(status),
		Index:   index,
		Total:   len(m.steps),
		Message: note,
	}
	if status != StepStatusActive {
		event.Duration = s.Duration()
	}
	if status == StepStatusFailed && s.Error != nil {
		event.Error = s.Error.Error()
	}
	m.observer.OnStageEvent(ctx, event)
}
