package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"knowledge-orchestrator/internal/domain"
)

// RerankPairs scores each query's candidates with the cross-encoder
// and keeps the topN documents per query (Stage 2). The reranked
// subset always comes from that query's own candidate set. Scores are
// used for ordering and then discarded. A reranker error aborts the
// stage and propagates to the caller.
func RerankPairs(
	ctx context.Context,
	sc *StageContext,
	reranker domain.Reranker,
	logger *slog.Logger,
) error {
	sc.Pairs = make([]QueryContextPair, 0, len(sc.Candidates))

	for _, qc := range sc.Candidates {
		byID := make(map[string]domain.Document, len(qc.Documents))
		candidates := make([]domain.RerankCandidate, 0, len(qc.Documents))
		for _, doc := range qc.Documents {
			id := doc.ID.String()
			byID[id] = doc
			candidates = append(candidates, domain.RerankCandidate{
				ID:      id,
				Content: doc.Content,
			})
		}

		if len(candidates) == 0 {
			sc.Pairs = append(sc.Pairs, QueryContextPair{Query: qc.Query, Documents: []domain.Document{}})
			continue
		}

		rerankStart := time.Now()
		results, err := reranker.Rerank(ctx, qc.Query, candidates)
		if err != nil {
			return fmt.Errorf("reranking query %q failed: %w", qc.Query, err)
		}

		logger.Info("reranking_completed",
			slog.String("retrieval_id", sc.RetrievalID),
			slog.Int("candidate_count", len(candidates)),
			slog.Int("reranked_count", len(results)),
			slog.String("model", reranker.ModelName()),
			slog.Int64("duration_ms", time.Since(rerankStart).Milliseconds()))

		limit := sc.TopN
		if limit > len(results) {
			limit = len(results)
		}
		chosen := make([]domain.Document, 0, limit)
		for _, r := range results[:limit] {
			doc, ok := byID[r.ID]
			if !ok {
				// Reranker returned an ID outside this query's set.
				logger.Warn("reranker_returned_foreign_id",
					slog.String("retrieval_id", sc.RetrievalID),
					slog.String("id", r.ID))
				continue
			}
			chosen = append(chosen, doc)
		}

		sc.Pairs = append(sc.Pairs, QueryContextPair{Query: qc.Query, Documents: chosen})
	}

	return nil
}
