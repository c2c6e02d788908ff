package inference

import (
	"context"
	"net/http"
	"strings"
	"time"

	"knowledge-orchestrator/internal/domain"
)

// VisionDescriber sends base64-encoded images to a multimodal model
// and returns the textual description.
type VisionDescriber struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

func NewVisionDescriber(baseURL, model string, client *http.Client) *VisionDescriber {
	if client == nil {
		client = &http.Client{Timeout: 180 * time.Second}
	}
	return &VisionDescriber{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Client:  client,
	}
}

func (v *VisionDescriber) Describe(ctx context.Context, prompt string, imagesB64 []string) (string, error) {
	reqBody := chatRequest{
		Model: v.Model,
		Messages: []chatMessage{{
			Role:    "user",
			Content: prompt,
			Images:  imagesB64,
		}},
		Stream:    false,
		KeepAlive: -1,
		Options: map[string]interface{}{
			"temperature": 0.0,
		},
	}

	chatResp, err := doChat(ctx, v.Client, v.BaseURL, reqBody)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(chatResp.Message.Content), nil
}

var _ domain.ImageDescriber = (*VisionDescriber)(nil)
