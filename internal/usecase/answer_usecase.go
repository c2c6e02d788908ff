package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"knowledge-orchestrator/internal/domain"
	"knowledge-orchestrator/internal/usecase/retrieval"

	"github.com/google/uuid"
)

// answerCache is the subset of the expirable LRU used by the pipeline.
type answerCache interface {
	Get(key string) (AnswerResult, bool)
	Add(key string, value AnswerResult) bool
}

// AnswerResult is the pipeline output: the generated answer, the
// query/context pairs that produced it, and the reranked documents
// flattened across all pairs.
type AnswerResult struct {
	Answer    string
	Pairs     []retrieval.QueryContextPair
	Documents []domain.Document
}

// AnswerUsecase runs the fixed retrieve, rerank, compose pipeline.
type AnswerUsecase struct {
	encoder  domain.VectorEncoder
	store    domain.DocumentStore
	reranker domain.Reranker
	llm      domain.LLMClient
	fileMap  domain.FileMapStore
	builder  *AnswerPromptBuilder
	cache    answerCache
	logger   *slog.Logger

	topK      int
	topN      int
	maxTokens int
}

func NewAnswerUsecase(
	encoder domain.VectorEncoder,
	store domain.DocumentStore,
	reranker domain.Reranker,
	llm domain.LLMClient,
	fileMap domain.FileMapStore,
	builder *AnswerPromptBuilder,
	cache answerCache,
	logger *slog.Logger,
	topK, topN, maxTokens int,
) *AnswerUsecase {
	if topK <= 0 {
		topK = retrieval.DefaultTopK
	}
	if topN <= 0 {
		topN = retrieval.DefaultTopN
	}
	return &AnswerUsecase{
		encoder:   encoder,
		store:     store,
		reranker:  reranker,
		llm:       llm,
		fileMap:   fileMap,
		builder:   builder,
		cache:     cache,
		logger:    logger,
		topK:      topK,
		topN:      topN,
		maxTokens: maxTokens,
	}
}

// Run executes the pipeline for an already-resolved category. queries
// holds the retrieval queries (the original plus any transformed
// variants); the prompt is always composed around the original query.
// The pipeline is linear: fetch, rerank, compose, generate.
func (u *AnswerUsecase) Run(ctx context.Context, originalQuery string, queries []string, category domain.Category, source, userID string) (*AnswerResult, error) {
	if len(queries) == 0 {
		queries = []string{originalQuery}
	}

	cacheKey := answerCacheKey(category, originalQuery, queries, source, userID)
	if cached, ok := u.cache.Get(cacheKey); ok {
		u.logger.Info("answer_cache_hit",
			slog.String("collection", string(category)),
			slog.String("source", source))
		return &cached, nil
	}

	start := time.Now()
	sc := retrieval.NewStageContext(uuid.NewString(), queries, category, source, userID)
	sc.TopK = u.topK
	sc.TopN = u.topN

	if err := retrieval.FetchCandidates(ctx, sc, u.encoder, u.store, u.logger); err != nil {
		return nil, fmt.Errorf("retrieval stage failed: %w", err)
	}

	if err := retrieval.RerankPairs(ctx, sc, u.reranker, u.logger); err != nil {
		return nil, fmt.Errorf("reranking stage failed: %w", err)
	}

	var contexts []string
	var documents []domain.Document
	for _, pair := range sc.Pairs {
		for _, doc := range pair.Documents {
			contexts = append(contexts, doc.Content)
			documents = append(documents, doc)
		}
	}

	prompt := u.builder.Build(originalQuery, contexts)

	reply, err := u.llm.Generate(ctx, prompt, u.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	result := AnswerResult{
		Answer:    reply.Text,
		Pairs:     sc.Pairs,
		Documents: documents,
	}
	u.cache.Add(cacheKey, result)

	u.logger.Info("answer_composed",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.String("collection", string(category)),
		slog.Int("context_count", len(contexts)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return &result, nil
}

// RunForFile resolves the category an ingested file landed in and runs
// the pipeline against that collection.
func (u *AnswerUsecase) RunForFile(ctx context.Context, originalQuery string, queries []string, filename, userID string) (*AnswerResult, error) {
	category, err := u.fileMap.Resolve(ctx, filename)
	if err != nil {
		return nil, err
	}
	return u.Run(ctx, originalQuery, queries, category, filename, userID)
}

func answerCacheKey(category domain.Category, originalQuery string, queries []string, source, userID string) string {
	return strings.Join(append([]string{string(category), originalQuery, source, userID}, queries...), "\x1f")
}
