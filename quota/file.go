package quota

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists counts as a flat JSON object of key -> integer text.
// The file is re-read on every call so counts written by another process
// are observed; writes replace the file atomically.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore opens (or lazily creates) the store at path
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("quota file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create quota directory: %w", err)
	}

	return &FileStore{path: path}, nil
}

// DefaultFilePath returns ~/.modelhub/quota.json
func DefaultFilePath() string {
	return filepath.Join(os.Getenv("HOME"), ".modelhub", "quota.json")
}

// Path returns the backing file location
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the stored count. Missing or unreadable files read as empty.
func (s *FileStore) Get(ctx context.Context, modelID, endpointPath string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return parseCount(s.load()[Key(modelID, endpointPath)]), nil
}

// Increment adds one to the stored count
func (s *FileStore) Increment(ctx context.Context, modelID, endpointPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := s.load()
	key := Key(modelID, endpointPath)
	counts[key] = formatCount(parseCount(counts[key]) + 1)

	return s.save(counts)
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) load() map[string]string {
	counts := make(map[string]string)

	data, err := os.ReadFile(s.path)
	if err != nil {
		return counts
	}
	if err := json.Unmarshal(data, &counts); err != nil {
		return make(map[string]string)
	}
	return counts
}

func (s *FileStore) save(counts map[string]string) error {
	data, err := json.MarshalIndent(counts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal quota counts: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".quota-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp quota file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write quota file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write quota file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace quota file: %w", err)
	}

	return nil
}
