package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"knowledge-orchestrator/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubEncoder struct{ calls int }

func (e *stubEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

func (e *stubEncoder) Version() string { return "stub" }

type stubStore struct {
	docs    []domain.Document
	queries int
}

func (s *stubStore) Store(ctx context.Context, category domain.Category, docs []domain.Document) error {
	s.docs = append(s.docs, docs...)
	return nil
}

func (s *stubStore) DeleteBySource(ctx context.Context, source string) error {
	kept := s.docs[:0]
	for _, doc := range s.docs {
		if doc.Meta.Source != source {
			kept = append(kept, doc)
		}
	}
	s.docs = kept
	return nil
}

func (s *stubStore) Query(ctx context.Context, category domain.Category, queryVector []float32, topK int, filter domain.QueryFilter) ([]domain.Document, error) {
	s.queries++
	if len(s.docs) > topK {
		return s.docs[:topK], nil
	}
	return s.docs, nil
}

type passthroughReranker struct{}

func (r *passthroughReranker) Rerank(ctx context.Context, query string, candidates []domain.RerankCandidate) ([]domain.RerankResult, error) {
	results := make([]domain.RerankResult, len(candidates))
	for i, c := range candidates {
		results[i] = domain.RerankResult{ID: c.ID, Score: float32(len(candidates) - i)}
	}
	return results, nil
}

func (r *passthroughReranker) ModelName() string { return "passthrough" }

type failingReranker struct{}

func (r *failingReranker) Rerank(ctx context.Context, query string, candidates []domain.RerankCandidate) ([]domain.RerankResult, error) {
	return nil, errors.New("cross-encoder unavailable")
}

func (r *failingReranker) ModelName() string { return "failing" }

type stubLLM struct {
	reply   string
	prompts []string
}

func (l *stubLLM) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.LLMResponse, error) {
	l.prompts = append(l.prompts, prompt)
	return &domain.LLMResponse{Text: l.reply, Done: true}, nil
}

func (l *stubLLM) Version() string { return "stub" }

type stubFileMap struct {
	entries map[string]domain.Category
}

func (m *stubFileMap) Assign(ctx context.Context, filename string, category domain.Category) error {
	if m.entries == nil {
		m.entries = make(map[string]domain.Category)
	}
	m.entries[filename] = category
	return nil
}

func (m *stubFileMap) Resolve(ctx context.Context, filename string) (domain.Category, error) {
	category, ok := m.entries[filename]
	if !ok {
		return "", domain.ErrFileNotMapped
	}
	return category, nil
}

type mapCache struct {
	entries map[string]AnswerResult
}

func newMapCache() *mapCache { return &mapCache{entries: make(map[string]AnswerResult)} }

func (c *mapCache) Get(key string) (AnswerResult, bool) {
	v, ok := c.entries[key]
	return v, ok
}

func (c *mapCache) Add(key string, value AnswerResult) bool {
	c.entries[key] = value
	return false
}

func storedDoc(content string) domain.Document {
	return domain.Document{
		ID:      uuid.New(),
		Content: content,
		Meta:    domain.Metadata{Source: "report.pdf", UserID: "alice"},
	}
}

func newTestAnswerUsecase(t *testing.T, store *stubStore, llm *stubLLM, cache answerCache) (*AnswerUsecase, *stubFileMap) {
	t.Helper()
	builder, err := NewAnswerPromptBuilder(0)
	require.NoError(t, err)
	fileMap := &stubFileMap{}
	u := NewAnswerUsecase(&stubEncoder{}, store, &passthroughReranker{}, llm, fileMap, builder, cache, testLogger(), 10, 3, 0)
	return u, fileMap
}

func TestAnswerUsecase_Run(t *testing.T) {
	store := &stubStore{docs: []domain.Document{
		storedDoc("passage one"),
		storedDoc("passage two"),
		storedDoc("passage three"),
		storedDoc("passage four"),
	}}
	llm := &stubLLM{reply: "the answer"}
	u, _ := newTestAnswerUsecase(t, store, llm, newMapCache())

	result, err := u.Run(context.Background(), "what happened?", nil, domain.CategoryEducation, "report.pdf", "alice")
	require.NoError(t, err)

	assert.Equal(t, "the answer", result.Answer)
	require.Len(t, result.Pairs, 1)
	assert.Equal(t, "what happened?", result.Pairs[0].Query)
	// Top-N keeps three of the four candidates.
	require.Len(t, result.Pairs[0].Documents, 3)
	// Context documents keep their metadata so the caller can see
	// where each passage came from.
	assert.Equal(t, "report.pdf", result.Pairs[0].Documents[0].Meta.Source)
	assert.Equal(t, "alice", result.Pairs[0].Documents[0].Meta.UserID)
	assert.Len(t, result.Documents, 3)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Question: what happened?")
	assert.Contains(t, llm.prompts[0], "passage one")
}

func TestAnswerUsecase_Run_RerankerErrorAborts(t *testing.T) {
	store := &stubStore{docs: []domain.Document{storedDoc("passage")}}
	llm := &stubLLM{reply: "never reached"}
	builder, err := NewAnswerPromptBuilder(0)
	require.NoError(t, err)
	u := NewAnswerUsecase(&stubEncoder{}, store, &failingReranker{}, llm, &stubFileMap{}, builder, newMapCache(), testLogger(), 10, 3, 0)

	_, err = u.Run(context.Background(), "what happened?", nil, domain.CategoryEducation, "report.pdf", "alice")

	require.Error(t, err)
	assert.ErrorContains(t, err, "reranking stage failed")
	assert.Empty(t, llm.prompts, "generation must not run after a reranker failure")
}

func TestAnswerUsecase_Run_EmptyContextStillAnswers(t *testing.T) {
	store := &stubStore{}
	llm := &stubLLM{reply: "I do not have that information."}
	u, _ := newTestAnswerUsecase(t, store, llm, newMapCache())

	result, err := u.Run(context.Background(), "unknown topic?", nil, domain.CategoryOthers, "report.pdf", "alice")
	require.NoError(t, err)

	assert.Equal(t, "I do not have that information.", result.Answer)
	require.Len(t, llm.prompts, 1)
	assert.True(t, strings.HasSuffix(llm.prompts[0], "Answer:"))
}

func TestAnswerUsecase_Run_CacheHitSkipsPipeline(t *testing.T) {
	store := &stubStore{docs: []domain.Document{storedDoc("passage")}}
	llm := &stubLLM{reply: "cached answer"}
	u, _ := newTestAnswerUsecase(t, store, llm, newMapCache())
	ctx := context.Background()

	_, err := u.Run(ctx, "repeat me", nil, domain.CategorySports, "report.pdf", "alice")
	require.NoError(t, err)

	result, err := u.Run(ctx, "repeat me", nil, domain.CategorySports, "report.pdf", "alice")
	require.NoError(t, err)

	assert.Equal(t, "cached answer", result.Answer)
	assert.Equal(t, 1, store.queries, "second run must not hit the store")
	assert.Len(t, llm.prompts, 1, "second run must not hit the generator")
}

func TestAnswerUsecase_RunForFile(t *testing.T) {
	store := &stubStore{docs: []domain.Document{storedDoc("budget details")}}
	llm := &stubLLM{reply: "from the file"}
	u, fileMap := newTestAnswerUsecase(t, store, llm, newMapCache())
	ctx := context.Background()

	require.NoError(t, fileMap.Assign(ctx, "report.pdf", domain.CategoryEducation))

	result, err := u.RunForFile(ctx, "what is the budget?", nil, "report.pdf", "alice")
	require.NoError(t, err)
	assert.Equal(t, "from the file", result.Answer)
}

func TestAnswerUsecase_RunForFile_UnknownFile(t *testing.T) {
	store := &stubStore{}
	u, _ := newTestAnswerUsecase(t, store, &stubLLM{}, newMapCache())

	_, err := u.RunForFile(context.Background(), "anything", nil, "missing.pdf", "alice")
	assert.ErrorIs(t, err, domain.ErrFileNotMapped)
}
