// Package chat implements the query pipeline: routing, context assembly,
// response post-processing, and orchestration.
package chat

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/common"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/models"
	"github.com/ternarybob/parley/internal/services/conversation"
	"github.com/ternarybob/parley/internal/services/personas"
)

// ProviderResolver returns the completion provider serving a model string
type ProviderResolver interface {
	ForModel(model string) (interfaces.TextCompletion, error)
}

// RouteSelection explains how a persona was chosen
type RouteSelection string

const (
	SelectionRouted    RouteSelection = "routed"    // LLM classification
	SelectionDirect    RouteSelection = "direct"    // caller override
	SelectionTrigger   RouteSelection = "trigger"   // sales trigger phrase
	SelectionEscalated RouteSelection = "escalated" // conversation-shape heuristic
	SelectionSystem    RouteSelection = "system"    // meta/history short-circuit
)

// historyQueryKeywords are matched as substrings against the lower-cased query
var historyQueryKeywords = []string{
	"last prompt", "previous prompt", "last question",
	"previous message", "chat history", "conversation history",
	"what did i ask", "what did i say",
}

// historyQueryPatterns catch phrasings the keyword list misses
var historyQueryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)what (did|were) (i|me|my) (say|ask|questions?|prompts?|queries?)`),
	regexp.MustCompile(`(?i)(show|tell|give) me (the|my|our) (conversation|chat|message|history)`),
	regexp.MustCompile(`(?i)what (was|were) my (previous|last|prior|earlier) (message|question|prompt|query)`),
	regexp.MustCompile(`(?i)(can you )?(repeat|list|recap) (what i (said|asked)|my (questions|queries|messages))`),
	regexp.MustCompile(`(?i)what have i (asked|said) (so far|before)`),
}

// Router maps a query and its conversation to an answering persona
type Router struct {
	config    *common.RoutingConfig
	registry  *personas.Registry
	providers ProviderResolver
	logger    arbor.ILogger
}

// NewRouter creates a query router
func NewRouter(config *common.RoutingConfig, registry *personas.Registry, providers ProviderResolver, logger arbor.ILogger) *Router {
	return &Router{
		config:    config,
		registry:  registry,
		providers: providers,
		logger:    logger,
	}
}

// IsHistoryQuery reports whether the query asks about prior conversation.
// Checked before any LLM call so meta queries never cost a completion.
func IsHistoryQuery(query string) bool {
	queryLower := strings.ToLower(query)

	for _, keyword := range historyQueryKeywords {
		if strings.Contains(queryLower, keyword) {
			return true
		}
	}

	for _, pattern := range historyQueryPatterns {
		if pattern.MatchString(queryLower) {
			return true
		}
	}

	return false
}

// Route selects the answering persona for a query. Selection order: sales
// trigger phrases, conversation-shape escalation, then LLM classification.
// Always returns a registered persona; classification failures fall back to
// the configured default.
func (r *Router) Route(ctx context.Context, query string, history *conversation.History) (models.PersonaID, RouteSelection) {
	if r.config.SalesRoutingEnable {
		if r.matchesSalesTrigger(query) {
			r.logger.Debug().Str("query", query).Msg("Sales trigger phrase matched")
			return models.PersonaSales, SelectionTrigger
		}

		if id, ok := r.escalateByShape(ctx, query, history); ok {
			return id, SelectionEscalated
		}
	}

	return r.classify(ctx, query), SelectionRouted
}

// matchesSalesTrigger checks the query against configured trigger phrases
func (r *Router) matchesSalesTrigger(query string) bool {
	queryLower := strings.ToLower(query)
	for _, trigger := range r.config.SalesTriggers {
		if trigger != "" && strings.Contains(queryLower, strings.ToLower(trigger)) {
			return true
		}
	}
	return false
}

// escalateByShape applies the conversation-shape heuristic. Past the force
// threshold routing to sales is deterministic; between the thresholds prior
// agent turns are scanned for readiness keywords, and when those miss, a
// yes/no intent check runs on the cheap tier.
func (r *Router) escalateByShape(ctx context.Context, query string, history *conversation.History) (models.PersonaID, bool) {
	if history == nil {
		return "", false
	}

	exchanges := history.Len() / 2
	if exchanges < r.config.MinExchanges {
		return "", false
	}

	if exchanges >= r.config.ForceExchanges {
		r.logger.Debug().
			Int("exchanges", exchanges).
			Msg("Conversation length forces sales routing")
		return models.PersonaSales, true
	}

	if r.countReadinessHits(history) >= r.config.ReadinessThreshold {
		r.logger.Debug().Msg("Readiness keywords met sales escalation threshold")
		return models.PersonaSales, true
	}

	if r.checkSalesIntent(ctx, query, history) {
		r.logger.Debug().Msg("Intent check escalated to sales routing")
		return models.PersonaSales, true
	}

	return "", false
}

// countReadinessHits counts configured readiness keywords across prior
// agent turns
func (r *Router) countReadinessHits(history *conversation.History) int {
	hits := 0
	for _, turn := range history.Recent(0) {
		if turn.Role != models.TurnRoleAgent {
			continue
		}
		content := strings.ToLower(turn.Content)
		for _, keyword := range r.config.ReadinessKeywords {
			if keyword != "" && strings.Contains(content, strings.ToLower(keyword)) {
				hits++
			}
		}
	}
	return hits
}

// checkSalesIntent asks the routing tier a yes/no purchase-intent question.
// Errors fail closed (no escalation).
func (r *Router) checkSalesIntent(ctx context.Context, query string, history *conversation.History) bool {
	response, err := r.routerCompletion(ctx, personas.SalesIntentPrompt(
		history.FormattedTranscript(r.config.MinExchanges)+"\n\n"+query,
	))
	if err != nil {
		r.logger.Warn().Err(err).Msg("Sales intent check failed")
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(response)), "yes")
}

// classify performs the default LLM classification. The router prompt lists
// the answer personas and expects a single-word reply; anything outside the
// registered set corrects to the configured default persona.
func (r *Router) classify(ctx context.Context, query string) models.PersonaID {
	fallback := models.PersonaID(r.config.DefaultPersona)
	if !r.registry.Has(fallback) {
		fallback = models.PersonaWriter
	}

	response, err := r.routerCompletion(ctx, personas.RouterPrompt(r.registry.AnswerPersonas(), query))
	if err != nil {
		r.logger.Warn().Err(err).Msg("Router classification failed, using default persona")
		return fallback
	}

	id := models.PersonaID(strings.ToLower(strings.TrimSpace(response)))
	if id == models.PersonaRouter || !r.registry.Has(id) {
		r.logger.Warn().
			Str("classification", string(id)).
			Str("default", string(fallback)).
			Msg("Invalid persona from router, using default")
		return fallback
	}

	r.logger.Debug().
		Str("persona", string(id)).
		Msg("Query routed")
	return id
}

// routerCompletion runs a single-turn completion against the router persona
func (r *Router) routerCompletion(ctx context.Context, prompt string) (string, error) {
	routerPersona, err := r.registry.Get(models.PersonaRouter)
	if err != nil {
		return "", fmt.Errorf("router persona unavailable: %w", err)
	}

	provider, err := r.providers.ForModel(routerPersona.Model)
	if err != nil {
		return "", fmt.Errorf("no provider for router model: %w", err)
	}

	return provider.Generate(ctx, &interfaces.CompletionRequest{
		Messages:    []interfaces.Message{{Role: "user", Content: prompt}},
		Model:       routerPersona.Model,
		Temperature: &routerPersona.Temperature,
	})
}
