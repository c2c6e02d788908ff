package retrieval

import (
	"knowledge-orchestrator/internal/domain"
)

const (
	// DefaultTopK is the per-query candidate count fetched from the store.
	DefaultTopK = 10
	// DefaultTopN is the per-query count kept after reranking.
	DefaultTopN = 3
)

// StageContext carries data between pipeline stages. A fresh one is
// built per request; nothing in it outlives the request.
type StageContext struct {
	// Input
	RetrievalID string
	Queries     []string
	Category    domain.Category
	Source      string
	UserID      string

	// Stage 1 outputs
	Candidates []QueryCandidates

	// Stage 2 outputs
	Pairs []QueryContextPair

	// Config values (set once at init)
	TopK int
	TopN int
}

// NewStageContext builds a request-scoped context with default limits.
func NewStageContext(retrievalID string, queries []string, category domain.Category, source, userID string) *StageContext {
	return &StageContext{
		RetrievalID: retrievalID,
		Queries:     queries,
		Category:    category,
		Source:      source,
		UserID:      userID,
		TopK:        DefaultTopK,
		TopN:        DefaultTopN,
	}
}

// QueryCandidates holds the raw nearest-neighbor hits for one query.
type QueryCandidates struct {
	Query     string
	Documents []domain.Document
}

// QueryContextPair is the pipeline output: one query and the context
// documents chosen for it, metadata included so callers can see where
// each passage came from. Rerank scores are dropped once ordering is
// decided.
type QueryContextPair struct {
	Query     string
	Documents []domain.Document
}
