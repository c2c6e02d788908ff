package domain

import (
	"context"
	"errors"
)

// ErrFileNotMapped is returned when an ingested-file lookup finds no
// category for the requested name.
var ErrFileNotMapped = errors.New("file is not mapped to a category")

// Turn roles for the conversation transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is one utterance in the conversation transcript.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryStore persists the ordered conversation transcript.
type HistoryStore interface {
	Append(ctx context.Context, turns ...ChatTurn) error
	List(ctx context.Context) ([]ChatTurn, error)
}

// FileMapStore tracks which category each ingested file landed in, so
// later questions about a file can be routed to the right collection.
type FileMapStore interface {
	Assign(ctx context.Context, filename string, category Category) error

	// Resolve returns ErrFileNotMapped when the name is unknown.
	Resolve(ctx context.Context, filename string) (Category, error)
}
