package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"knowledge-orchestrator/internal/domain"
)

// FetchCandidates embeds every query and pulls the topK nearest
// documents for each from the category's collection (Stage 1). Hits
// are restricted to documents whose source matches the requested file
// OR whose owner matches the requesting user.
func FetchCandidates(
	ctx context.Context,
	sc *StageContext,
	encoder domain.VectorEncoder,
	store domain.DocumentStore,
	logger *slog.Logger,
) error {
	if len(sc.Queries) == 0 {
		return fmt.Errorf("no queries to retrieve for")
	}

	start := time.Now()

	vectors, err := encoder.Encode(ctx, sc.Queries)
	if err != nil {
		return fmt.Errorf("failed to embed queries: %w", err)
	}
	if len(vectors) != len(sc.Queries) {
		return fmt.Errorf("embedding count %d does not match query count %d", len(vectors), len(sc.Queries))
	}

	filter := domain.QueryFilter{Source: sc.Source, UserID: sc.UserID}

	sc.Candidates = make([]QueryCandidates, len(sc.Queries))
	for i, query := range sc.Queries {
		docs, err := store.Query(ctx, sc.Category, vectors[i], sc.TopK, filter)
		if err != nil {
			return fmt.Errorf("failed to query collection %q: %w", sc.Category, err)
		}
		sc.Candidates[i] = QueryCandidates{Query: query, Documents: docs}
	}

	total := 0
	for _, qc := range sc.Candidates {
		total += len(qc.Documents)
	}
	logger.Info("candidates_fetched",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.String("collection", string(sc.Category)),
		slog.Int("query_count", len(sc.Queries)),
		slog.Int("candidate_count", total),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return nil
}
