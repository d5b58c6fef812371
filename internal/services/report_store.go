package services

import (
	"sync"

	"storepulse/internal/report"
)

// maxStoredReports bounds the in-memory report store. Reports are
// session-scoped artifacts; once generation outpaces downloads the oldest
// narratives are evicted.
const maxStoredReports = 100

// ReportStore holds generated narratives in memory, keyed by report ID, so
// a report generated in one request can be exported as PDF in a later one.
type ReportStore struct {
	mu      sync.Mutex
	reports map[string]*report.Narrative
	order   []string
}

// NewReportStore creates an empty report store.
func NewReportStore() *ReportStore {
	return &ReportStore{reports: make(map[string]*report.Narrative)}
}

// Save stores a narrative under its ID, evicting the oldest stored report
// when the store is full.
func (s *ReportStore) Save(n *report.Narrative) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[n.ID]; !exists {
		s.order = append(s.order, n.ID)
	}
	s.reports[n.ID] = n

	for len(s.order) > maxStoredReports {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.reports, oldest)
	}
}

// Get returns the narrative with the given ID, or ErrReportNotFound.
func (s *ReportStore) Get(id string) (*report.Narrative, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.reports[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	return n, nil
}

// Len reports the number of stored narratives.
func (s *ReportStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}
