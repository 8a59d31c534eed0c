package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/common"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/models"
	"github.com/ternarybob/parley/internal/services/conversation"
	"github.com/ternarybob/parley/internal/services/personas"
)

// ErrRetrievalUnavailable marks a DocumentStore failure during context
// assembly. An empty corpus is not a failure; only store errors carry this.
var ErrRetrievalUnavailable = errors.New("document retrieval unavailable")

// ContextAssembler builds the variable set a persona's prompt template
// needs: retrieved documents, formatted history, and persona identity.
// Read-only: assembly never mutates conversation state.
type ContextAssembler struct {
	config    *common.RetrievalConfig
	window    int
	documents interfaces.DocumentStore
	registry  *personas.Registry
	logger    arbor.ILogger
}

// NewContextAssembler creates a context assembler. window is the number of
// turn pairs included in formatted history.
func NewContextAssembler(config *common.RetrievalConfig, window int, documents interfaces.DocumentStore, registry *personas.Registry, logger arbor.ILogger) *ContextAssembler {
	return &ContextAssembler{
		config:    config,
		window:    window,
		documents: documents,
		registry:  registry,
		logger:    logger,
	}
}

// AssembledContext is the rendered prompt input plus retrieval stats
type AssembledContext struct {
	Input         personas.PromptInput
	DocumentCount int
}

// Assemble produces the prompt input for a persona answering a query.
// includeHistory controls whether the conversation transcript is injected.
// A DocumentStore failure is fatal for the request: answering without the
// context the store should have supplied invites fabricated answers, so the
// error propagates wrapped in ErrRetrievalUnavailable. An empty result from
// a healthy store is not an error.
func (a *ContextAssembler) Assemble(ctx context.Context, query string, persona *models.Persona, history *conversation.History, includeHistory bool) (*AssembledContext, error) {
	documents, err := a.retrieveDocuments(ctx, query)
	if err != nil {
		a.logger.Error().Err(err).Msg("Document retrieval failed")
		return nil, fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err)
	}

	historySection := ""
	if includeHistory && history != nil {
		historySection = history.FormattedTranscript(a.window)
	}

	return &AssembledContext{
		Input: personas.PromptInput{
			PersonaName:        persona.Name,
			PersonaDescription: persona.Description,
			Documents:          a.formatDocuments(documents),
			HistorySection:     historySection,
			Query:              query,
		},
		DocumentCount: len(documents),
	}, nil
}

func (a *ContextAssembler) retrieveDocuments(ctx context.Context, query string) ([]models.RetrievedDocument, error) {
	k := a.config.MaxDocuments
	if k <= 0 {
		k = 4
	}
	return a.documents.Search(ctx, query, k)
}

// formatDocuments concatenates fragment texts in retrieval rank order,
// blank-line separated. Fragments are truncated to the configured snippet
// length when one is set.
func (a *ContextAssembler) formatDocuments(documents []models.RetrievedDocument) string {
	if len(documents) == 0 {
		return ""
	}

	fragments := make([]string, 0, len(documents))
	for _, doc := range documents {
		text := doc.Text
		if a.config.SnippetLength > 0 && len(text) > a.config.SnippetLength {
			text = text[:a.config.SnippetLength] + "..."
		}
		fragments = append(fragments, text)
	}
	return strings.Join(fragments, "\n\n")
}
