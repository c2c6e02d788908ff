package usecase

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// AnswerPromptBuilder renders the fixed answer-composition prompt and
// enforces a token budget on the context block.
type AnswerPromptBuilder struct {
	maxPromptTokens int
	encoding        *tiktoken.Tiktoken
}

// NewAnswerPromptBuilder creates a builder with a cl100k_base token
// counter. maxPromptTokens <= 0 disables the budget.
func NewAnswerPromptBuilder(maxPromptTokens int) (*AnswerPromptBuilder, error) {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to load token encoding: %w", err)
	}
	return &AnswerPromptBuilder{
		maxPromptTokens: maxPromptTokens,
		encoding:        encoding,
	}, nil
}

// Build renders the prompt. Context passages are included in order
// until the token budget is exhausted; the question is never truncated.
// An empty context list still renders a complete prompt.
func (b *AnswerPromptBuilder) Build(query string, contexts []string) string {
	var sb strings.Builder
	sb.WriteString("Answer the question given the context.\n")
	sb.WriteString("Question: ")
	sb.WriteString(query)
	sb.WriteString("\nContext:\n")

	budget := b.maxPromptTokens
	if budget > 0 {
		budget -= b.countTokens(sb.String()) + b.countTokens("Answer:")
	}

	for _, passage := range contexts {
		if budget > 0 {
			cost := b.countTokens(passage) + 1
			if cost > budget {
				break
			}
			budget -= cost
		}
		sb.WriteString(passage)
		sb.WriteString("\n")
	}

	sb.WriteString("Answer:")
	return sb.String()
}

func (b *AnswerPromptBuilder) countTokens(text string) int {
	return len(b.encoding.Encode(text, nil, nil))
}
