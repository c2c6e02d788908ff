package domain

import "context"

// LLMClient sends a prompt to the generative model and returns the
// first reply.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (*LLMResponse, error)
	Version() string
}

// LLMResponse carries the model output and whether generation finished.
type LLMResponse struct {
	Text string
	Done bool
}

// StructuredClient invokes the model constrained to a predeclared JSON
// schema and returns the raw JSON reply for the caller to decode.
type StructuredClient interface {
	Invoke(ctx context.Context, system, user string, schema map[string]interface{}) ([]byte, error)
}

// ImageDescriber extracts a textual description from one or more
// base64-encoded images.
type ImageDescriber interface {
	Describe(ctx context.Context, prompt string, imagesB64 []string) (string, error)
}
