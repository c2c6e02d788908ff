package domain

import "context"

// RerankCandidate is one document offered to the cross-encoder.
type RerankCandidate struct {
	// ID maps results back to the originating document.
	ID string
	// Content is the text scored against the query.
	Content string
}

// RerankResult is a scored candidate.
type RerankResult struct {
	ID    string
	Score float32
}

// Reranker scores candidates against a query with a cross-encoder
// relevance model. Results come back sorted by score descending.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []RerankCandidate) ([]RerankResult, error)

	// ModelName identifies the model for logging.
	ModelName() string
}
