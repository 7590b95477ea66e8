package operations

import (
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

// RunState carries the intermediate values of one run between steps. It is
// owned by a single Run call and never shared.
type RunState struct {
	RunID   string
	Options Options
	Table   *domain.RawTable

	Mapping    domain.SchemaMapping
	Candidates []domain.Transaction

	Cleaned []domain.Transaction
	Audit   domain.CleaningAudit

	Series      *domain.KpiSeries
	Period      int
	Summary     domain.Summary
	TopProducts []domain.ProductSales
	Countries   []domain.CountrySales

	Decomposition *domain.Decomposition
	Forecast      *domain.ForecastResult

	notes map[string]string
}

func newRunState(runID string, table *domain.RawTable, opts Options) *RunState {
	return &RunState{
		RunID:   runID,
		Options: opts,
		Table:   table,
		notes:   make(map[string]string),
	}
}

// Note attaches a one-line outcome to a step.
func (s *RunState) Note(stepID, note string) {
	s.notes[stepID] = note
}

// NoteFor returns the note recorded for a step.
func (s *RunState) NoteFor(stepID string) string {
	return s.notes[stepID]
}
