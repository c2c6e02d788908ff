package inference

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"knowledge-orchestrator/internal/domain"
)

// StructuredGenerator invokes the chat endpoint with a JSON schema in
// the format field, so the model reply is guaranteed to parse.
type StructuredGenerator struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

func NewStructuredGenerator(baseURL, model string, client *http.Client) *StructuredGenerator {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &StructuredGenerator{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Client:  client,
	}
}

// Invoke returns the raw constrained JSON reply for the caller to decode.
func (g *StructuredGenerator) Invoke(ctx context.Context, system, user string, schema map[string]interface{}) ([]byte, error) {
	messages := []chatMessage{}
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: user})

	reqBody := chatRequest{
		Model:     g.Model,
		Messages:  messages,
		Stream:    false,
		KeepAlive: -1,
		Format:    schema,
		Options: map[string]interface{}{
			"temperature": 0.0,
		},
	}

	chatResp, err := doChat(ctx, g.Client, g.BaseURL, reqBody)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(chatResp.Message.Content)
	if content == "" {
		return nil, fmt.Errorf("structured generation returned empty reply")
	}
	return []byte(content), nil
}

var _ domain.StructuredClient = (*StructuredGenerator)(nil)
