package services

import (
	"sync"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

// DefaultReportCapacity bounds the in-memory report history.
const DefaultReportCapacity = 32

// reportStore keeps the most recent reports, evicting the oldest first.
type reportStore struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	reports  map[string]*domain.AnalysisReport
}

func newReportStore(capacity int) *reportStore {
	if capacity <= 0 {
		capacity = DefaultReportCapacity
	}
	return &reportStore{
		capacity: capacity,
		reports:  make(map[string]*domain.AnalysisReport, capacity),
	}
}

func (s *reportStore) put(r *domain.AnalysisReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[r.RunID]; !ok {
		s.order = append(s.order, r.RunID)
	}
	s.reports[r.RunID] = r
	for len(s.order) > s.capacity {
		delete(s.reports, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *reportStore) get(id string) (*domain.AnalysisReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	return r, ok
}

// list returns reports newest first.
func (s *reportStore) list() []*domain.AnalysisReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.AnalysisReport, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.reports[s.order[i]])
	}
	return out
}

func (s *reportStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
