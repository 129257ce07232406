package metrics

import (
	"context"
	"sync"
)

// MemoryStore holds the counters in process memory. Used by tests and the
// demo binary.
type MemoryStore struct {
	mu   sync.Mutex
	snap Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) AddCost(_ context.Context, delta float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.TotalCost += delta
	return s.snap.TotalCost, nil
}

func (s *MemoryStore) IncrementVisitors(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.VisitorCount++
	return s.snap.VisitorCount, nil
}

func (s *MemoryStore) Snapshot(_ context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, nil
}
