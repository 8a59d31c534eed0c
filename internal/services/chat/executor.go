package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/common"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/models"
	"github.com/ternarybob/parley/internal/services/conversation"
	"github.com/ternarybob/parley/internal/services/personas"
)

// apologyResponse is returned when the completion backend fails. The failed
// exchange is not recorded in history.
const apologyResponse = "I apologize, but I encountered an error while processing your query. Please try again or rephrase your question."

// retrievalUnavailableResponse is returned when the document store fails.
// The query is not answered without its context and the exchange is not
// recorded in history.
const retrievalUnavailableResponse = "I apologize, but the knowledge base is temporarily unavailable, so I cannot answer your question right now. Please try again shortly."

// defaultSessionID scopes requests that carry no session identifier
const defaultSessionID = "default"

// Executor orchestrates one query through the pipeline: meta short-circuit,
// routing, context assembly, completion, post-processing, and history
// recording. Implements interfaces.QueryService.
type Executor struct {
	config    *common.Config
	registry  *personas.Registry
	router    *Router
	assembler *ContextAssembler
	post      *PostProcessor
	providers ProviderResolver
	sessions  *conversation.Manager
	metrics   interfaces.MetricsTracker
	logger    arbor.ILogger
}

// NewExecutor creates a query executor
func NewExecutor(
	config *common.Config,
	registry *personas.Registry,
	router *Router,
	assembler *ContextAssembler,
	post *PostProcessor,
	providers ProviderResolver,
	sessions *conversation.Manager,
	metrics interfaces.MetricsTracker,
	logger arbor.ILogger,
) *Executor {
	return &Executor{
		config:    config,
		registry:  registry,
		router:    router,
		assembler: assembler,
		post:      post,
		providers: providers,
		sessions:  sessions,
		metrics:   metrics,
		logger:    logger,
	}
}

// Execute answers a query with the routed or overridden persona
func (e *Executor) Execute(ctx context.Context, req *interfaces.QueryRequest) (*models.ExecutionResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	queryID := common.NewQueryID()
	startTime := time.Now()

	override, err := e.parseOverride(req.Persona)
	if err != nil {
		return nil, err
	}

	sessionID, err := e.sessionID(req.SessionID)
	if err != nil {
		return nil, err
	}
	history, err := e.sessions.Session(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	// Meta queries about prior conversation are answered from history
	// directly, before any LLM call
	if IsHistoryQuery(req.Query) {
		return e.answerHistoryQuery(req.Query, history, queryID, startTime), nil
	}

	personaID, selection, routingLatency := e.resolvePersona(ctx, req.Query, override, history, queryID)
	e.metrics.TrackAgentUsage(personaID, string(selection), queryID)

	persona, err := e.registry.Get(personaID)
	if err != nil {
		return nil, fmt.Errorf("resolved persona unavailable: %w", err)
	}

	e.logger.Info().
		Str("query_id", queryID).
		Str("persona", string(personaID)).
		Str("selection", string(selection)).
		Msg("Executing query")

	retrievalStart := time.Now()
	assembled, err := e.assembler.Assemble(ctx, req.Query, persona, history, req.IncludeHistory)
	if err != nil {
		if errors.Is(err, ErrRetrievalUnavailable) {
			e.logger.Error().
				Err(err).
				Str("query_id", queryID).
				Str("persona", string(personaID)).
				Msg("Aborting query, document store unavailable")
			e.metrics.TrackLatency("error", personaID, time.Since(startTime), queryID)

			// Answering without retrieved context risks fabricated answers.
			// The exchange stays out of history like any failed turn.
			return &models.ExecutionResult{
				Persona:  personaID,
				Response: retrievalUnavailableResponse,
			}, nil
		}
		return nil, fmt.Errorf("context assembly failed: %w", err)
	}
	retrievalLatency := time.Since(retrievalStart)
	e.metrics.TrackLatency("retrieval", personaID, retrievalLatency, queryID)
	if assembled.DocumentCount > 0 {
		e.metrics.TrackRetrieval(req.Query, assembled.DocumentCount, queryID)
	}

	promptSpec, err := e.registry.Prompt(personaID)
	if err != nil {
		return nil, err
	}
	prompt := promptSpec.Render(assembled.Input)

	llmStart := time.Now()
	response, err := e.generate(ctx, persona, prompt)
	if err != nil {
		e.logger.Error().
			Err(err).
			Str("query_id", queryID).
			Str("persona", string(personaID)).
			Msg("Completion failed")
		e.metrics.TrackLatency("error", personaID, time.Since(startTime), queryID)

		// The failed exchange is not appended to history; a retried query
		// should not see the apology as prior context
		return &models.ExecutionResult{
			Persona:  personaID,
			Response: apologyResponse,
		}, nil
	}
	llmLatency := time.Since(llmStart)
	e.metrics.TrackLatency("llm_response", personaID, llmLatency, queryID)
	e.trackTokenEstimates(personaID, persona.Model, prompt, response, queryID)

	response, calls := e.post.Process(response, persona)
	if len(calls) > 0 {
		e.logger.Debug().
			Str("query_id", queryID).
			Int("function_calls", len(calls)).
			Msg("Executed inline function calls")
	}

	history.AppendExchange(req.Query, response, personaID)

	totalLatency := time.Since(startTime)
	e.metrics.TrackLatency("total", personaID, totalLatency, queryID)

	return &models.ExecutionResult{
		Persona:  personaID,
		Response: response,
		Metrics: &models.QueryMetrics{
			QueryID:          queryID,
			RoutingLatency:   routingLatency,
			RetrievalLatency: retrievalLatency,
			LLMLatency:       llmLatency,
			TotalLatency:     totalLatency,
		},
	}, nil
}

// ExecuteWithReview answers a query, then validates the answer with a
// history-free pass through the tester persona.
func (e *Executor) ExecuteWithReview(ctx context.Context, req *interfaces.QueryRequest) (*models.ExecutionResult, error) {
	primary, err := e.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	e.logger.Info().
		Str("persona", string(primary.Persona)).
		Msg("Reviewing response")

	review, err := e.Execute(ctx, &interfaces.QueryRequest{
		Query:          personas.VerificationPrompt(req.Query, primary.Response),
		Persona:        string(models.PersonaTester),
		SessionID:      req.SessionID,
		IncludeHistory: false,
	})
	if err != nil {
		return nil, fmt.Errorf("review pass failed: %w", err)
	}

	primary.Validation = review.Response
	return primary, nil
}

// HealthCheck verifies the completion backend serving the default persona
func (e *Executor) HealthCheck(ctx context.Context) error {
	fallback := models.PersonaID(e.config.Routing.DefaultPersona)
	persona, err := e.registry.Get(fallback)
	if err != nil {
		return err
	}
	provider, err := e.providers.ForModel(persona.Model)
	if err != nil {
		return err
	}
	return provider.HealthCheck(ctx)
}

// parseOverride validates a caller-supplied persona override. Empty means
// route; unknown or reserved values are a usage error.
func (e *Executor) parseOverride(raw string) (models.PersonaID, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	id, err := models.ParsePersonaID(raw)
	if err != nil {
		return "", err
	}
	if !e.registry.Has(id) {
		return "", fmt.Errorf("%w %q", models.ErrUnknownPersona, raw)
	}
	return id, nil
}

// sessionID resolves the effective session for a request. When the shared
// default session is disabled in config, requests must name their own.
func (e *Executor) sessionID(requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	if !e.config.Conversation.DefaultSession {
		return "", fmt.Errorf("session_id is required")
	}
	return defaultSessionID, nil
}

// resolvePersona returns the persona handling a query: the caller's
// validated override when present, otherwise the router's selection.
func (e *Executor) resolvePersona(ctx context.Context, query string, override models.PersonaID, history *conversation.History, queryID string) (models.PersonaID, RouteSelection, time.Duration) {
	if override != "" {
		return override, SelectionDirect, 0
	}

	routingStart := time.Now()
	id, selection := e.router.Route(ctx, query, history)
	routingLatency := time.Since(routingStart)
	e.metrics.TrackLatency("routing", id, routingLatency, queryID)
	return id, selection, routingLatency
}

// answerHistoryQuery synthesizes the numbered listing of prior user
// queries. The exchange is recorded under the reserved system persona and
// skips post-processing.
func (e *Executor) answerHistoryQuery(query string, history *conversation.History, queryID string, startTime time.Time) *models.ExecutionResult {
	e.logger.Info().
		Str("query_id", queryID).
		Msg("Answering conversation history query")

	limit := e.config.Routing.HistoryQueryLimit
	if limit <= 0 {
		limit = 10
	}
	response := "Here are your previous questions:\n\n" + formatUserQueries(history.RawUserQueries(limit))

	history.AppendExchange(query, response, models.PersonaSystem)

	e.metrics.TrackLatency("system_response", models.PersonaSystem, time.Since(startTime), queryID)
	e.metrics.TrackAgentUsage(models.PersonaSystem, string(SelectionSystem), queryID)

	return &models.ExecutionResult{
		Persona:  models.PersonaSystem,
		Response: response,
	}
}

// formatUserQueries renders raw user queries as a numbered quoted list
func formatUserQueries(queries []string) string {
	if len(queries) == 0 {
		return "You haven't asked any questions yet."
	}
	lines := make([]string, 0, len(queries))
	for i, q := range queries {
		lines = append(lines, fmt.Sprintf("%d. %q", i+1, q))
	}
	return strings.Join(lines, "\n")
}

// generate runs the persona's completion with the rendered prompt
func (e *Executor) generate(ctx context.Context, persona *models.Persona, prompt string) (string, error) {
	provider, err := e.providers.ForModel(persona.Model)
	if err != nil {
		return "", err
	}

	return provider.Generate(ctx, &interfaces.CompletionRequest{
		Messages:    []interfaces.Message{{Role: "user", Content: prompt}},
		Model:       persona.Model,
		Temperature: &persona.Temperature,
	})
}

// trackTokenEstimates records rough token usage at ~3 chars per token
func (e *Executor) trackTokenEstimates(personaID models.PersonaID, model, prompt, response, queryID string) {
	e.metrics.TrackTokenUsage(personaID, model, len(prompt)/3, len(response)/3, queryID)
}
