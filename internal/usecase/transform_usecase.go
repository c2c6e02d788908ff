package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"knowledge-orchestrator/internal/domain"
)

// DefaultMultiQueryCount caps how many reworded variants MultiQuery asks for.
const DefaultMultiQueryCount = 3

var selectorSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"technique": map[string]interface{}{
			"type": "string",
			"enum": []string{"decomposition", "multi_query", "core_meaning", "none"},
		},
		"justification": map[string]interface{}{"type": "string"},
	},
	"required": []string{"technique", "justification"},
}

var queryListSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"queries": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
	},
	"required": []string{"queries"},
}

var singleQuerySchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"query": map[string]interface{}{"type": "string"},
	},
	"required": []string{"query"},
}

// TransformUsecase selects and applies query rewriting strategies.
type TransformUsecase struct {
	structured domain.StructuredClient
	router     *RouterUsecase
	logger     *slog.Logger
}

func NewTransformUsecase(structured domain.StructuredClient, router *RouterUsecase, logger *slog.Logger) *TransformUsecase {
	return &TransformUsecase{
		structured: structured,
		router:     router,
		logger:     logger,
	}
}

// Select asks the model which strategy fits the query. The reply is
// validated against the closed enum; anything else is an error.
func (u *TransformUsecase) Select(ctx context.Context, query string) (domain.TransformationKind, string, error) {
	raw, err := u.structured.Invoke(ctx, transformationSelectorPrompt, "Query: "+query, selectorSchema)
	if err != nil {
		return "", "", fmt.Errorf("selector call failed: %w", err)
	}

	var reply struct {
		Technique     string `json:"technique"`
		Justification string `json:"justification"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", "", fmt.Errorf("failed to decode selector reply: %w", err)
	}

	kind, err := domain.ParseTransformationKind(reply.Technique)
	if err != nil {
		return "", "", err
	}

	u.logger.Info("transformation_selected",
		slog.String("technique", string(kind)),
		slog.String("justification", reply.Justification))

	return kind, reply.Justification, nil
}

// Apply dispatches on the enum value. Every kind has an explicit arm;
// there is no construction of handler names from strings.
func (u *TransformUsecase) Apply(ctx context.Context, kind domain.TransformationKind, query string) ([]string, error) {
	switch kind {
	case domain.TransformDecomposition:
		return u.Decompose(ctx, query)
	case domain.TransformMultiQuery:
		return u.MultiQuery(ctx, query, DefaultMultiQueryCount)
	case domain.TransformStepBack:
		stepped, err := u.StepBack(ctx, query)
		if err != nil {
			return nil, err
		}
		return []string{stepped}, nil
	case domain.TransformCoreMeaning:
		core, err := u.router.CoreMeaning(ctx, query)
		if err != nil {
			return nil, err
		}
		return []string{core}, nil
	case domain.TransformNone:
		return []string{query}, nil
	default:
		return nil, fmt.Errorf("unknown transformation kind %q", kind)
	}
}

// Run selects a strategy and applies it. A transformer that cannot
// rewrite the query yields the original query untouched.
func (u *TransformUsecase) Run(ctx context.Context, query string) (domain.TransformationKind, []string, error) {
	kind, _, err := u.Select(ctx, query)
	if err != nil {
		return "", nil, err
	}

	queries, err := u.Apply(ctx, kind, query)
	if err != nil {
		return "", nil, err
	}
	if len(queries) == 0 {
		queries = []string{query}
	}
	return kind, queries, nil
}

// Decompose breaks a compound query into isolated sub-queries. An
// empty list means the query was too small to decompose.
func (u *TransformUsecase) Decompose(ctx context.Context, query string) ([]string, error) {
	return u.queryList(ctx, decompositionSystemPrompt, "question = "+quote(query))
}

// MultiQuery generates up to n reworded variants of the query. Fewer
// than n is allowed; an empty list means no transformation was possible.
func (u *TransformUsecase) MultiQuery(ctx context.Context, query string, n int) ([]string, error) {
	if n <= 0 {
		n = DefaultMultiQueryCount
	}
	user := fmt.Sprintf("Query: %s, number: %d", quote(query), n)
	queries, err := u.queryList(ctx, multiQuerySystemPrompt, user)
	if err != nil {
		return nil, err
	}
	if len(queries) > n {
		queries = queries[:n]
	}
	return queries, nil
}

// StepBack generalizes the query, echoing it back when it cannot be
// generalized.
func (u *TransformUsecase) StepBack(ctx context.Context, query string) (string, error) {
	raw, err := u.structured.Invoke(ctx, stepBackSystemPrompt, "Query: "+quote(query), singleQuerySchema)
	if err != nil {
		return "", fmt.Errorf("step-back call failed: %w", err)
	}

	var reply struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", fmt.Errorf("failed to decode step-back reply: %w", err)
	}
	if strings.TrimSpace(reply.Query) == "" {
		return query, nil
	}
	return reply.Query, nil
}

func (u *TransformUsecase) queryList(ctx context.Context, system, user string) ([]string, error) {
	raw, err := u.structured.Invoke(ctx, system, user, queryListSchema)
	if err != nil {
		return nil, fmt.Errorf("transformation call failed: %w", err)
	}

	var reply struct {
		Queries []string `json:"queries"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("failed to decode transformation reply: %w", err)
	}

	out := make([]string, 0, len(reply.Queries))
	for _, q := range reply.Queries {
		if strings.TrimSpace(q) != "" {
			out = append(out, q)
		}
	}
	return out, nil
}

func quote(query string) string {
	return fmt.Sprintf("%q", query)
}
