package journal

import (
	"sort"
	"sync"
)

type memoryStorage struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryStorage() Storage {
	return &memoryStorage{}
}

func (s *memoryStorage) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *memoryStorage) List(f Filter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, e := range s.entries {
		if f.RunID != "" && e.RunID != f.RunID {
			continue
		}
		if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}

func (s *memoryStorage) Runs(limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[string]*Run)
	var order []string
	for _, e := range s.entries {
		r, ok := byID[e.RunID]
		if !ok {
			r = &Run{ID: e.RunID, Kind: e.Kind, Started: e.Timestamp, Finished: e.Timestamp}
			byID[e.RunID] = r
			order = append(order, e.RunID)
		}
		if e.Timestamp.Before(r.Started) {
			r.Started = e.Timestamp
		}
		if e.Timestamp.After(r.Finished) {
			r.Finished = e.Timestamp
		}
		r.Entries++
	}

	runs := make([]Run, 0, len(order))
	for _, id := range order {
		runs = append(runs, *byID[id])
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Started.After(runs[j].Started) })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *memoryStorage) Close() error {
	return nil
}
