// Package events contains the messages pushed to WebSocket subscribers while
// analysis runs progress.
package events

import "time"

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MessageTypeRunStarted   MessageType = "run:started"
	MessageTypeStageUpdate  MessageType = "run:stage"
	MessageTypeRunCompleted MessageType = "run:completed"
	MessageTypeRunFailed    MessageType = "run:failed"

	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"
)

// StageStatus mirrors the lifecycle of a pipeline stage.
type StageStatus string

const (
	StageStatusActive    StageStatus = "active"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
	StageStatusSkipped   StageStatus = "skipped"
)

// StageEvent reports one stage transition of a run.
type StageEvent struct {
	RunID    string        `json:"run_id"`
	Stage    string        `json:"stage"`
	Name     string        `json:"name"`
	Status   StageStatus   `json:"status"`
	Index    int           `json:"index"`
	Total    int           `json:"total"`
	Duration time.Duration `json:"duration_ns,omitempty"`
	Message  string        `json:"message,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Progress returns completed stages as a percentage.
func (e StageEvent) Progress() int {
	if e.Total == 0 {
		return 0
	}
	done := e.Index
	if e.Status != StageStatusActive {
		done++
	}
	return done * 100 / e.Total
}

// Message is the envelope written to WebSocket clients.
type Message struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}
