package usecase

import (
	"context"
	"strings"
	"testing"

	"knowledge-orchestrator/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedStructured returns a canned reply per system prompt prefix.
type scriptedStructured struct {
	replies map[string]string
	calls   []string
}

func (s *scriptedStructured) Invoke(ctx context.Context, system, user string, schema map[string]interface{}) ([]byte, error) {
	s.calls = append(s.calls, user)
	for prefix, reply := range s.replies {
		if strings.HasPrefix(system, prefix) {
			return []byte(reply), nil
		}
	}
	return []byte(`{}`), nil
}

type stubHistory struct {
	turns []domain.ChatTurn
}

func (h *stubHistory) Append(ctx context.Context, turns ...domain.ChatTurn) error {
	h.turns = append(h.turns, turns...)
	return nil
}

func (h *stubHistory) List(ctx context.Context) ([]domain.ChatTurn, error) {
	return h.turns, nil
}

func TestRouterUsecase_Route_Conversational(t *testing.T) {
	structured := &scriptedStructured{replies: map[string]string{
		"Based on the chat history": `{"data_request": null, "conversational": {"response": "Hello! How can I help?"}}`,
	}}
	u := NewRouterUsecase(structured, &stubHistory{}, testLogger())

	decision, coreMeaning, err := u.Route(context.Background(), "hi there")
	require.NoError(t, err)

	assert.False(t, decision.NeedsData())
	require.NotNil(t, decision.Conversational)
	assert.Equal(t, "Hello! How can I help?", decision.Conversational.Response)
	assert.Empty(t, coreMeaning)
}

func TestRouterUsecase_Route_DataRequestExtractsCoreMeaning(t *testing.T) {
	structured := &scriptedStructured{replies: map[string]string{
		"Based on the chat history": `{"data_request": {"filename": "report.pdf", "query": "tell me about the yearly budget numbers", "filetype": "pdf", "action": "fetch"}, "conversational": null}`,
		"Identify the core terms":   `{"core_meaning": "yearly budget numbers"}`,
	}}
	history := &stubHistory{turns: []domain.ChatTurn{
		{Role: domain.RoleUser, Content: "Uploaded file report.pdf"},
	}}
	u := NewRouterUsecase(structured, history, testLogger())

	decision, coreMeaning, err := u.Route(context.Background(), "what about the budget in my report?")
	require.NoError(t, err)

	assert.True(t, decision.NeedsData())
	require.NotNil(t, decision.DataRequest)
	assert.Equal(t, "report.pdf", decision.DataRequest.Filename)
	assert.Equal(t, "yearly budget numbers", coreMeaning)

	// The router call embeds the conversation history.
	require.NotEmpty(t, structured.calls)
	assert.Contains(t, structured.calls[0], "Uploaded file report.pdf")
}

func TestRouterUsecase_Route_BothVariantsIsUnroutable(t *testing.T) {
	structured := &scriptedStructured{replies: map[string]string{
		"Based on the chat history": `{"data_request": {"filename": "a.pdf", "query": "q", "filetype": "pdf", "action": "fetch"}, "conversational": {"response": "hi"}}`,
	}}
	u := NewRouterUsecase(structured, &stubHistory{}, testLogger())

	_, _, err := u.Route(context.Background(), "ambiguous")
	assert.ErrorIs(t, err, domain.ErrUnroutableReply)
}

func TestRouterUsecase_Route_NeitherVariantIsUnroutable(t *testing.T) {
	structured := &scriptedStructured{replies: map[string]string{
		"Based on the chat history": `{"data_request": null, "conversational": null}`,
	}}
	u := NewRouterUsecase(structured, &stubHistory{}, testLogger())

	_, _, err := u.Route(context.Background(), "empty")
	assert.ErrorIs(t, err, domain.ErrUnroutableReply)
}

func TestRouterUsecase_CoreMeaning_EmptyReplyEchoesQuery(t *testing.T) {
	structured := &scriptedStructured{replies: map[string]string{
		"Identify the core terms": `{"core_meaning": "  "}`,
	}}
	u := NewRouterUsecase(structured, &stubHistory{}, testLogger())

	core, err := u.CoreMeaning(context.Background(), "original query")
	require.NoError(t, err)
	assert.Equal(t, "original query", core)
}
