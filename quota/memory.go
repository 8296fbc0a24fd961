package quota

import (
	"context"
	"sync"
)

// MemoryStore keeps counts in process memory.
// Counts are lost on exit; use it for tests and ephemeral sessions.
type MemoryStore struct {
	mu     sync.RWMutex
	counts map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counts: make(map[string]string),
	}
}

// Get returns the stored count
func (s *MemoryStore) Get(ctx context.Context, modelID, endpointPath string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return parseCount(s.counts[Key(modelID, endpointPath)]), nil
}

// Increment adds one to the stored count
func (s *MemoryStore) Increment(ctx context.Context, modelID, endpointPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(modelID, endpointPath)
	s.counts[key] = formatCount(parseCount(s.counts[key]) + 1)
	return nil
}

// Set overwrites a raw stored value. It exists to seed tests.
func (s *MemoryStore) Set(modelID, endpointPath, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[Key(modelID, endpointPath)] = raw
}

func (s *MemoryStore) Close() error {
	return nil
}
