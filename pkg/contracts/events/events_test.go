package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageEventProgress(t *testing.T) {
	tests := []struct {
		name  string
		event StageEvent
		want  int
	}{
		{"no total", StageEvent{}, 0},
		{"first active", StageEvent{Index: 0, Total: 5, Status: StageStatusActive}, 0},
		{"first completed", StageEvent{Index: 0, Total: 5, Status: StageStatusCompleted}, 20},
		{"last skipped", StageEvent{Index: 4, Total: 5, Status: StageStatusSkipped}, 100},
		{"third failed", StageEvent{Index: 2, Total: 4, Status: StageStatusFailed}, 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.Progress())
		})
	}
}
