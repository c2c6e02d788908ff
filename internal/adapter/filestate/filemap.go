package filestate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"knowledge-orchestrator/internal/domain"
)

// fileMapStore persists the filename-to-category map as a JSON object
// on disk.
type fileMapStore struct {
	path string

	mu      sync.Mutex
	entries map[string]domain.Category
}

// NewFileMapStore loads the map at path, creating an empty one when
// the file does not exist yet.
func NewFileMapStore(path string) (domain.FileMapStore, error) {
	s := &fileMapStore{
		path:    path,
		entries: make(map[string]domain.Category),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read file map: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.entries); err != nil {
			return nil, fmt.Errorf("failed to decode file map: %w", err)
		}
	}
	return s, nil
}

// Assign records the category a file landed in. Re-ingesting the same
// name overwrites the previous assignment.
func (s *fileMapStore) Assign(ctx context.Context, filename string, category domain.Category) error {
	if _, err := domain.ParseCategory(string(category)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[filename] = category
	return persistJSON(s.path, s.entries)
}

func (s *fileMapStore) Resolve(ctx context.Context, filename string) (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	category, ok := s.entries[filename]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrFileNotMapped, filename)
	}
	return category, nil
}
