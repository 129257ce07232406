package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// FileStore persists counters as a small JSON document. A process-wide
// mutex serializes read-modify-write cycles; the file is rewritten whole on
// every update. Suitable for a single-instance deployment only.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) AddCost(_ context.Context, delta float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load()
	if err != nil {
		return 0, err
	}
	snap.TotalCost += delta
	if err := s.save(snap); err != nil {
		return 0, err
	}
	return snap.TotalCost, nil
}

func (s *FileStore) IncrementVisitors(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load()
	if err != nil {
		return 0, err
	}
	snap.VisitorCount++
	if err := s.save(snap); err != nil {
		return 0, err
	}
	return snap.VisitorCount, nil
}

func (s *FileStore) Snapshot(_ context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// load returns a zero snapshot when the file does not exist yet; the first
// update creates it.
func (s *FileStore) load() (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read counter file: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode counter file: %w", err)
	}
	return snap, nil
}

func (s *FileStore) save(snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode counter file: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write counter file: %w", err)
	}
	return nil
}
