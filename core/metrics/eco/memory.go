package eco

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps records in memory.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[time.Time]*Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[time.Time]*Record{}}
}

// Add merges r into the record of its vehicle and day.
func (s *MemoryStore) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	days := s.data[r.Vehicle]
	if days == nil {
		days = map[time.Time]*Record{}
		s.data[r.Vehicle] = days
	}
	d := Day(r.Date)
	rec := days[d]
	if rec == nil {
		rec = &Record{Vehicle: r.Vehicle, Date: d}
		days[d] = rec
	}
	rec.Trips += r.Trips
	rec.DistanceKm += r.DistanceKm
	rec.EnergyKWh += r.EnergyKWh
	return nil
}

// Query returns the records of vehicle between start and end inclusive,
// oldest first.
func (s *MemoryStore) Query(vehicle string, start, end time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start, end = Day(start), Day(end)
	var res []Record
	for d, r := range s.data[vehicle] {
		if d.Before(start) || d.After(end) {
			continue
		}
		res = append(res, *r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.Before(res[j].Date) })
	return res, nil
}
