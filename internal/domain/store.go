package domain

import (
	"context"
	"errors"
)

// ErrMissingOwnership is returned when a document arrives at the
// gateway without a source or userid.
var ErrMissingOwnership = errors.New("document missing source or userid")

// QueryFilter restricts retrieval to documents whose source matches
// Source OR whose owner matches UserID. The disjunction is pinned by
// tests in the retrieval package.
type QueryFilter struct {
	Source string
	UserID string
}

// DocumentStore is the gateway to the per-category vector collections.
type DocumentStore interface {
	// Store assigns an identifier to each document and persists
	// content, embedding, and metadata into the category's collection.
	// Store itself never dedups; callers that want replace semantics
	// pair it with DeleteBySource in one transaction.
	Store(ctx context.Context, category Category, docs []Document) error

	// DeleteBySource removes every document ingested from the named
	// source, across all collections.
	DeleteBySource(ctx context.Context, source string) error

	// Query returns at most topK documents from the category's
	// collection ordered by descending similarity to queryVector,
	// restricted by the filter disjunction.
	Query(ctx context.Context, category Category, queryVector []float32, topK int, filter QueryFilter) ([]Document, error)
}
