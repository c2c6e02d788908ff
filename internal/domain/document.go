package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Category identifies which collection a document belongs to.
// Assigned once during ingestion classification.
type Category string

const (
	CategoryEducation   Category = "Education"
	CategorySports      Category = "Sports"
	CategoryPolitics    Category = "Politics"
	CategoryEnvironment Category = "Environment"
	CategoryOthers      Category = "Others"
	CategoryImages      Category = "Images"
)

// ErrUnknownCategory is returned when a category key maps to no collection.
var ErrUnknownCategory = errors.New("unknown category")

// Categories lists every collection the gateway manages.
func Categories() []Category {
	return []Category{
		CategoryEducation,
		CategorySports,
		CategoryPolitics,
		CategoryEnvironment,
		CategoryOthers,
		CategoryImages,
	}
}

// ParseCategory validates a raw category string against the known set.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Metadata carries the ownership and provenance fields attached to
// every stored document. Source and UserID must be non-empty.
type Metadata struct {
	Source  string // owning file name, e.g. "report.pdf"
	UserID  string // uploader
	Page    int    // 1-based page number; 0 when not page-scoped
	Image   bool   // content came from an embedded or uploaded image
	Summary bool   // content is a rollup summary, not raw page text
}

// NewVector wraps raw embedding values in the stored vector type.
func NewVector(values []float32) pgvector.Vector {
	return pgvector.NewVector(values)
}

// Document is an immutable content unit. Created during ingestion,
// owned by the store gateway once persisted, never mutated afterwards;
// re-ingestion of the same source appends new documents.
type Document struct {
	ID        uuid.UUID
	Content   string
	Embedding pgvector.Vector
	Meta      Metadata
	CreatedAt time.Time
}
