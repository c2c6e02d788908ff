package filestate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"knowledge-orchestrator/internal/domain"
)

// historyStore persists the conversation transcript as a JSON array on
// disk. Every append rewrites the file; transcripts stay small enough
// that this beats the bookkeeping of an append-only log.
type historyStore struct {
	path string

	mu    sync.Mutex
	turns []domain.ChatTurn
}

// NewHistoryStore loads the transcript at path, creating an empty one
// when the file does not exist yet.
func NewHistoryStore(path string) (domain.HistoryStore, error) {
	s := &historyStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.turns); err != nil {
			return nil, fmt.Errorf("failed to decode history file: %w", err)
		}
	}
	return s, nil
}

func (s *historyStore) Append(ctx context.Context, turns ...domain.ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, turns...)
	return persistJSON(s.path, s.turns)
}

func (s *historyStore) List(ctx context.Context) ([]domain.ChatTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ChatTurn, len(s.turns))
	copy(out, s.turns)
	return out, nil
}

// persistJSON writes via a temp file and rename so a crash mid-write
// never leaves a truncated state file.
func persistJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
