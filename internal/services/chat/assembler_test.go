package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/parley/internal/common"
	"github.com/ternarybob/parley/internal/models"
	"github.com/ternarybob/parley/internal/services/conversation"
	"github.com/ternarybob/parley/internal/services/personas"
)

func newTestAssembler(store *mockDocumentStore) *ContextAssembler {
	logger := testChatLogger()
	cfg := common.NewDefaultConfig()
	registry := personas.NewRegistry("claude-sonnet-4-20250514", "gemini-2.5-flash", logger)
	return NewContextAssembler(&cfg.Retrieval, cfg.Conversation.HistoryWindow, store, registry, logger)
}

func TestAssembler_DocumentsJoinedInRankOrder(t *testing.T) {
	assembler := newTestAssembler(&mockDocumentStore{documents: []models.RetrievedDocument{
		{Text: "first fragment", Source: "a.md", Score: 0.9},
		{Text: "second fragment", Source: "b.md", Score: 0.5},
	}})

	ctx, err := assembler.Assemble(context.Background(), "query", writerPersona(), nil, false)
	require.NoError(t, err)

	assert.Equal(t, "first fragment\n\nsecond fragment", ctx.Input.Documents)
	assert.Equal(t, 2, ctx.DocumentCount)
}

func TestAssembler_RetrievalFailurePropagates(t *testing.T) {
	assembler := newTestAssembler(&mockDocumentStore{err: errors.New("store offline")})

	ctx, err := assembler.Assemble(context.Background(), "query", writerPersona(), nil, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetrievalUnavailable)
	assert.Nil(t, ctx)
}

func TestAssembler_EmptyResultIsNotAFailure(t *testing.T) {
	assembler := newTestAssembler(&mockDocumentStore{})

	ctx, err := assembler.Assemble(context.Background(), "query", writerPersona(), nil, false)
	require.NoError(t, err)

	assert.Empty(t, ctx.Input.Documents)
	assert.Equal(t, 0, ctx.DocumentCount)
}

func TestAssembler_HistoryIncludedWhenRequested(t *testing.T) {
	assembler := newTestAssembler(&mockDocumentStore{})

	history, err := conversation.NewHistory("s", nil, testChatLogger())
	require.NoError(t, err)
	history.AppendExchange("earlier question", "earlier answer", models.PersonaWriter)

	withHistory, err := assembler.Assemble(context.Background(), "query", writerPersona(), history, true)
	require.NoError(t, err)
	assert.Contains(t, withHistory.Input.HistorySection, "User: earlier question")
	assert.Contains(t, withHistory.Input.HistorySection, "Writer: earlier answer")

	withoutHistory, err := assembler.Assemble(context.Background(), "query", writerPersona(), history, false)
	require.NoError(t, err)
	assert.Empty(t, withoutHistory.Input.HistorySection)
}

func TestAssembler_RenderedPromptUsesFallbackMarkers(t *testing.T) {
	assembler := newTestAssembler(&mockDocumentStore{})
	logger := testChatLogger()
	registry := personas.NewRegistry("claude-model", "gemini-model", logger)

	assembled, err := assembler.Assemble(context.Background(), "what is covered", writerPersona(), nil, true)
	require.NoError(t, err)

	spec, err := registry.Prompt(models.PersonaWriter)
	require.NoError(t, err)
	prompt := spec.Render(assembled.Input)

	assert.Contains(t, prompt, personas.NoHistoryMarker)
	assert.Contains(t, prompt, "No relevant documents found.")
	assert.Contains(t, prompt, "what is covered")
	assert.NotContains(t, prompt, "{query}")
}
