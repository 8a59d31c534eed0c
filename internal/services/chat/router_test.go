package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/parley/internal/common"
	"github.com/ternarybob/parley/internal/models"
	"github.com/ternarybob/parley/internal/services/conversation"
	"github.com/ternarybob/parley/internal/services/personas"
)

func newTestRouter(routerResponse string, cfg *common.RoutingConfig) (*Router, *mockCompletion) {
	logger := testChatLogger()
	registry := personas.NewRegistry("claude-sonnet-4-20250514", "gemini-2.5-flash", logger)
	completion := &mockCompletion{response: routerResponse}
	return NewRouter(cfg, registry, &mockResolver{completion: completion}, logger), completion
}

func defaultRoutingConfig() *common.RoutingConfig {
	cfg := common.NewDefaultConfig()
	return &cfg.Routing
}

func TestIsHistoryQuery(t *testing.T) {
	historyQueries := []string{
		"What was my last prompt?",
		"show me the conversation history",
		"What did I ask before?",
		"can you list my questions",
		"what have I asked so far",
	}
	for _, q := range historyQueries {
		assert.True(t, IsHistoryQuery(q), "expected history query: %s", q)
	}

	regularQueries := []string{
		"What is flood insurance?",
		"How do I file a claim?",
		"Tell me about deductibles",
	}
	for _, q := range regularQueries {
		assert.False(t, IsHistoryQuery(q), "expected regular query: %s", q)
	}
}

func TestRouter_Classification(t *testing.T) {
	router, completion := newTestRouter("developer", defaultRoutingConfig())

	id, selection := router.Route(context.Background(), "How does TLS handshaking work?", nil)

	assert.Equal(t, models.PersonaDeveloper, id)
	assert.Equal(t, SelectionRouted, selection)
	assert.Equal(t, 1, completion.callCount())
}

func TestRouter_ClassificationTrimsAndLowercases(t *testing.T) {
	router, _ := newTestRouter("  Tester \n", defaultRoutingConfig())

	id, _ := router.Route(context.Background(), "verify this", nil)
	assert.Equal(t, models.PersonaTester, id)
}

func TestRouter_UnknownClassificationFallsBack(t *testing.T) {
	router, _ := newTestRouter("banana", defaultRoutingConfig())

	id, selection := router.Route(context.Background(), "anything", nil)

	assert.Equal(t, models.PersonaWriter, id)
	assert.Equal(t, SelectionRouted, selection)
}

func TestRouter_RouterPersonaNotRoutable(t *testing.T) {
	router, _ := newTestRouter("router", defaultRoutingConfig())

	id, _ := router.Route(context.Background(), "anything", nil)
	assert.Equal(t, models.PersonaWriter, id)
}

func TestRouter_SalesTrigger(t *testing.T) {
	cfg := defaultRoutingConfig()
	cfg.SalesRoutingEnable = true
	cfg.SalesTriggers = []string{"talk to sales", "pricing"}
	router, completion := newTestRouter("developer", cfg)

	id, selection := router.Route(context.Background(), "I'd like to Talk To Sales please", nil)

	assert.Equal(t, models.PersonaSales, id)
	assert.Equal(t, SelectionTrigger, selection)
	// trigger match must not cost a completion
	assert.Equal(t, 0, completion.callCount())
}

func TestRouter_ForceExchangesEscalation(t *testing.T) {
	cfg := defaultRoutingConfig()
	cfg.SalesRoutingEnable = true
	cfg.MinExchanges = 2
	cfg.ForceExchanges = 3
	router, completion := newTestRouter("developer", cfg)

	history, err := conversation.NewHistory("s", nil, testChatLogger())
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		history.AppendExchange("question", "answer", models.PersonaWriter)
	}

	id, selection := router.Route(context.Background(), "tell me more", history)

	assert.Equal(t, models.PersonaSales, id)
	assert.Equal(t, SelectionEscalated, selection)
	assert.Equal(t, 0, completion.callCount())
}

func TestRouter_ReadinessKeywordEscalation(t *testing.T) {
	cfg := defaultRoutingConfig()
	cfg.SalesRoutingEnable = true
	cfg.MinExchanges = 2
	cfg.ForceExchanges = 10
	cfg.ReadinessKeywords = []string{"premium", "quote"}
	cfg.ReadinessThreshold = 3
	router, _ := newTestRouter("developer", cfg)

	history, err := conversation.NewHistory("s", nil, testChatLogger())
	require.NoError(t, err)
	history.AppendExchange("q1", "Our premium plan includes a quote.", models.PersonaWriter)
	history.AppendExchange("q2", "The premium tier is popular.", models.PersonaWriter)

	id, selection := router.Route(context.Background(), "tell me more", history)

	assert.Equal(t, models.PersonaSales, id)
	assert.Equal(t, SelectionEscalated, selection)
}

func TestRouter_IntentCheckEscalation(t *testing.T) {
	cfg := defaultRoutingConfig()
	cfg.SalesRoutingEnable = true
	cfg.MinExchanges = 1
	cfg.ForceExchanges = 10
	cfg.ReadinessThreshold = 99
	router, completion := newTestRouter("developer", cfg)
	completion.byPrompt = map[string]string{"intent to buy": "Yes"}

	history, err := conversation.NewHistory("s", nil, testChatLogger())
	require.NoError(t, err)
	history.AppendExchange("what plans do you have", "We offer three plans.", models.PersonaWriter)

	id, selection := router.Route(context.Background(), "I want to sign up", history)

	assert.Equal(t, models.PersonaSales, id)
	assert.Equal(t, SelectionEscalated, selection)
}

func TestRouter_IntentCheckNoFallsThrough(t *testing.T) {
	cfg := defaultRoutingConfig()
	cfg.SalesRoutingEnable = true
	cfg.MinExchanges = 1
	cfg.ForceExchanges = 10
	cfg.ReadinessThreshold = 99
	router, completion := newTestRouter("developer", cfg)
	completion.byPrompt = map[string]string{"intent to buy": "no"}

	history, err := conversation.NewHistory("s", nil, testChatLogger())
	require.NoError(t, err)
	history.AppendExchange("q", "a", models.PersonaWriter)

	id, selection := router.Route(context.Background(), "how does it work", history)

	assert.Equal(t, models.PersonaDeveloper, id)
	assert.Equal(t, SelectionRouted, selection)
}

func TestRouter_SalesDisabledIgnoresTriggers(t *testing.T) {
	cfg := defaultRoutingConfig()
	cfg.SalesRoutingEnable = false
	cfg.SalesTriggers = []string{"pricing"}
	router, _ := newTestRouter("writer", cfg)

	id, selection := router.Route(context.Background(), "what is your pricing", nil)

	assert.Equal(t, models.PersonaWriter, id)
	assert.Equal(t, SelectionRouted, selection)
}
