package operations

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Step represents a single step of the pipeline
type Step interface {
	// ID returns the unique identifier for this Step
	ID() string

	// Name returns the human-readable name for this Step
	Name() string

	// Execute runs the Step against the run state. Returning a *SkipError
	// marks the step skipped without failing the run.
	Execute(ctx context.Context, state *RunState) error
}

// StepStatus represents the current status of a Step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState represents the runtime state of a Step
type StepState struct {
	mu        sync.RWMutex
	ID        string
	Name      string
	Status    StepStatus
	StartTime *time.Time
	EndTime   *time.Time
	Message   string
	Error     error
}

// NewStepState creates a new Step state with default values
func NewStepState(id, name string) *StepState {
	return &StepState{
		ID:     id,
		Name:   name,
		Status: StepStatusPending,
	}
}

// Start marks the Step as active and sets the start time
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = &now
	s.Status = StepStatusActive
}

// Complete marks the Step as completed and sets the end time
func (s *StepState) Complete(message string) {
	s.finish(StepStatusCompleted, message, nil)
}

// Fail marks the Step as failed with the given error
func (s *StepState) Fail(err error) {
	s.finish(StepStatusFailed, "", err)
}

// Skip marks the Step as skipped with the given reason
func (s *StepState) Skip(reason string) {
	s.finish(StepStatusSkipped, reason, nil)
}

func (s *StepState) finish(status StepStatus, message string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.StartTime == nil {
		s.StartTime = &now
	}
	s.EndTime = &now
	s.Status = status
	s.Message = message
	s.Error = err
}

// Snapshot returns status and message under the lock.
func (s *StepState) Snapshot() (StepStatus, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status, s.Message
}

// Duration returns the duration of the Step execution
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

// BaseStage provides common functionality for Step implementations
type BaseStage struct {
	id   string
	name string
}

// NewBaseStage creates a new base Step
func NewBaseStage(id, name string) BaseStage {
	return BaseStage{id: id, name: name}
}

// ID returns the Step ID
func (b BaseStage) ID() string { return b.id }

// Name returns the Step name
func (b BaseStage) Name() string { return b.name }

// SkipError reports that a step had nothing to do. The run continues.
type SkipError struct {
	Reason string
	Cause  error
}

func (e *SkipError) Error() string { return "skipped: " + e.Reason }

func (e *SkipError) Unwrap() error { return e.Cause }

// asSkip reports whether err asks for the step to be skipped.
func asSkip(err error) (*SkipError, bool) {
	var skip *SkipError
	if errors.As(err, &skip) {
		return skip, true
	}
	return nil, false
}
