package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CSVFile is an ingested tabular file. Rows are stored verbatim so
// questions can be answered over the raw values.
type CSVFile struct {
	ID        uuid.UUID
	Filename  string
	Header    []string
	Rows      [][]string
	CreatedAt time.Time
}

// CSVRepository stores and retrieves ingested CSV files.
type CSVRepository interface {
	Save(ctx context.Context, file *CSVFile) error

	// Load returns ErrFileNotMapped when the name is unknown.
	Load(ctx context.Context, filename string) (*CSVFile, error)

	ListFilenames(ctx context.Context) ([]string, error)
}
