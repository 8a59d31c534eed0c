package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/common"
)

func newTestFactory(defaultProvider string) *Factory {
	cfg := common.NewDefaultConfig()
	cfg.LLM.DefaultProvider = defaultProvider
	return NewFactory(cfg, arbor.NewLogger())
}

func TestFactory_DetectProvider(t *testing.T) {
	f := newTestFactory("claude")

	assert.Equal(t, ProviderClaude, f.DetectProvider("claude-sonnet-4-20250514"))
	assert.Equal(t, ProviderClaude, f.DetectProvider("claude/claude-sonnet-4-20250514"))
	assert.Equal(t, ProviderClaude, f.DetectProvider("anthropic/claude-3-haiku"))
	assert.Equal(t, ProviderGemini, f.DetectProvider("gemini-2.5-flash"))
	assert.Equal(t, ProviderGemini, f.DetectProvider("google/gemini-2.5-flash"))

	// empty and unknown models fall back to the default provider
	assert.Equal(t, ProviderClaude, f.DetectProvider(""))
	assert.Equal(t, ProviderClaude, f.DetectProvider("gpt-4"))

	g := newTestFactory("gemini")
	assert.Equal(t, ProviderGemini, g.DetectProvider(""))
}

func TestFactory_NormalizeModel(t *testing.T) {
	f := newTestFactory("claude")

	assert.Equal(t, "claude-sonnet-4-20250514", f.NormalizeModel("claude/claude-sonnet-4-20250514"))
	assert.Equal(t, "gemini-2.5-flash", f.NormalizeModel("gemini/gemini-2.5-flash"))
	assert.Equal(t, "claude-sonnet-4-20250514", f.NormalizeModel("claude-sonnet-4-20250514"))
}
