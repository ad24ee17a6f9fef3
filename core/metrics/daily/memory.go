package daily

import (
	"sort"
	"sync"
)

// MemoryStore stores records in memory for testing or lightweight usage.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[int]*Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[int]*Record{}}
}

// Add accumulates r into the record of its run and day.
func (s *MemoryStore) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[r.RunID] == nil {
		s.data[r.RunID] = map[int]*Record{}
	}
	rec := s.data[r.RunID][r.Day]
	if rec == nil {
		rec = &Record{RunID: r.RunID, Day: r.Day}
		s.data[r.RunID][r.Day] = rec
	}
	rec.LoadKWh += r.LoadKWh
	rec.RenewableKWh += r.RenewableKWh
	rec.CurtailedKWh += r.CurtailedKWh
	rec.MissedKWh += r.MissedKWh
	return nil
}

// Query returns records between fromDay and toDay inclusive, ordered by day.
// A negative toDay means no upper bound.
func (s *MemoryStore) Query(runID string, fromDay, toDay int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []Record
	for d, r := range s.data[runID] {
		if d < fromDay || (toDay >= 0 && d > toDay) {
			continue
		}
		res = append(res, *r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Day < res[j].Day })
	return res, nil
}
