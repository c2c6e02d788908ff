package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"knowledge-orchestrator/internal/domain"
)

// routerSchema forces the model to fill exactly one decision variant.
var routerSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"data_request": map[string]interface{}{
			"type": []string{"object", "null"},
			"properties": map[string]interface{}{
				"filename": map[string]interface{}{"type": "string"},
				"query":    map[string]interface{}{"type": "string"},
				"filetype": map[string]interface{}{"type": "string"},
				"action":   map[string]interface{}{"type": "string"},
			},
			"required": []string{"filename", "query", "filetype", "action"},
		},
		"conversational": map[string]interface{}{
			"type": []string{"object", "null"},
			"properties": map[string]interface{}{
				"response": map[string]interface{}{"type": "string"},
			},
			"required": []string{"response"},
		},
	},
	"required": []string{"data_request", "conversational"},
}

var coreMeaningSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"core_meaning": map[string]interface{}{"type": "string"},
	},
	"required": []string{"core_meaning"},
}

type routerReply struct {
	DataRequest    *domain.InternalDataRequest    `json:"data_request"`
	Conversational *domain.ConversationalResponse `json:"conversational"`
}

// RouterUsecase decides whether a query needs ingested data or a plain
// conversational reply.
type RouterUsecase struct {
	structured domain.StructuredClient
	history    domain.HistoryStore
	logger     *slog.Logger
}

func NewRouterUsecase(structured domain.StructuredClient, history domain.HistoryStore, logger *slog.Logger) *RouterUsecase {
	return &RouterUsecase{
		structured: structured,
		history:    history,
		logger:     logger,
	}
}

// Route classifies the query against the conversation history. When
// the decision is a data request, a second structured call extracts
// the core meaning of the embedded query; coreMeaning is empty for
// conversational decisions. Model errors propagate to the caller.
func (u *RouterUsecase) Route(ctx context.Context, query string) (domain.RouterDecision, string, error) {
	turns, err := u.history.List(ctx)
	if err != nil {
		return domain.RouterDecision{}, "", fmt.Errorf("failed to load history: %w", err)
	}

	user := fmt.Sprintf("Query: %s\nChat History:\n%s", query, renderHistory(turns))

	raw, err := u.structured.Invoke(ctx, knowledgeRouterPrompt, user, routerSchema)
	if err != nil {
		return domain.RouterDecision{}, "", fmt.Errorf("router call failed: %w", err)
	}

	var reply routerReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return domain.RouterDecision{}, "", fmt.Errorf("%w: %v", domain.ErrUnroutableReply, err)
	}

	decision := domain.RouterDecision{
		DataRequest:    reply.DataRequest,
		Conversational: reply.Conversational,
	}
	if err := decision.Validate(); err != nil {
		return domain.RouterDecision{}, "", err
	}

	if !decision.NeedsData() {
		u.logger.Info("query_routed",
			slog.String("decision", "conversational"))
		return decision, "", nil
	}

	coreMeaning, err := u.CoreMeaning(ctx, decision.DataRequest.Query)
	if err != nil {
		return domain.RouterDecision{}, "", err
	}

	u.logger.Info("query_routed",
		slog.String("decision", "data_request"),
		slog.String("filename", decision.DataRequest.Filename),
		slog.String("action", decision.DataRequest.Action))

	return decision, coreMeaning, nil
}

// CoreMeaning strips a query down to its central terms.
func (u *RouterUsecase) CoreMeaning(ctx context.Context, query string) (string, error) {
	raw, err := u.structured.Invoke(ctx, coreMeaningPrompt, "Query: "+query, coreMeaningSchema)
	if err != nil {
		return "", fmt.Errorf("core meaning call failed: %w", err)
	}

	var reply struct {
		CoreMeaning string `json:"core_meaning"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnroutableReply, err)
	}
	if strings.TrimSpace(reply.CoreMeaning) == "" {
		return query, nil
	}
	return reply.CoreMeaning, nil
}

func renderHistory(turns []domain.ChatTurn) string {
	if len(turns) == 0 {
		return "(empty)"
	}
	var sb strings.Builder
	for _, turn := range turns {
		sb.WriteString(turn.Role)
		sb.WriteString(": ")
		sb.WriteString(turn.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
