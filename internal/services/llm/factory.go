package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/common"
	"github.com/ternarybob/parley/internal/interfaces"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses the Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses the Anthropic Claude API
	ProviderClaude ProviderType = "claude"
)

// Factory creates and caches completion providers, selecting one per model
// string. Providers are initialized lazily on first use.
type Factory struct {
	mu     sync.Mutex
	cfg    *common.Config
	logger arbor.ILogger
	claude *ClaudeProvider
	gemini *GeminiProvider
}

// NewFactory creates a provider factory
func NewFactory(cfg *common.Config, logger arbor.ILogger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// DetectProvider determines the provider type from a model string.
// Model strings can carry an explicit prefix ("claude/...", "gemini/...")
// or are matched on name pattern. Empty strings fall back to the
// configured default provider.
func (f *Factory) DetectProvider(model string) ProviderType {
	if model == "" {
		return ProviderType(f.cfg.LLM.DefaultProvider)
	}

	model = strings.ToLower(model)

	if strings.HasPrefix(model, "claude/") || strings.HasPrefix(model, "anthropic/") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini/") || strings.HasPrefix(model, "google/") {
		return ProviderGemini
	}

	if strings.HasPrefix(model, "claude-") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini-") {
		return ProviderGemini
	}

	return ProviderType(f.cfg.LLM.DefaultProvider)
}

// NormalizeModel removes a provider prefix from the model name if present
func (f *Factory) NormalizeModel(model string) string {
	prefixes := []string{"claude/", "anthropic/", "gemini/", "google/"}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// ForModel returns the completion provider serving a model string
func (f *Factory) ForModel(model string) (interfaces.TextCompletion, error) {
	switch f.DetectProvider(model) {
	case ProviderClaude:
		return f.claudeProvider()
	case ProviderGemini:
		return f.geminiProvider()
	default:
		return nil, fmt.Errorf("no provider for model %q", model)
	}
}

func (f *Factory) claudeProvider() (interfaces.TextCompletion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.claude == nil {
		provider, err := NewClaudeProvider(&f.cfg.Claude, f.cfg.LLM.RateLimit, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Claude provider: %w", err)
		}
		f.claude = provider
	}
	return f.claude, nil
}

func (f *Factory) geminiProvider() (interfaces.TextCompletion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.gemini == nil {
		provider, err := NewGeminiProvider(&f.cfg.Gemini, f.cfg.LLM.RateLimit, f.cfg.LLM.MaxRetries, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini provider: %w", err)
		}
		f.gemini = provider
	}
	return f.gemini, nil
}

// HealthCheck probes the providers that have been initialized
func (f *Factory) HealthCheck(ctx context.Context) error {
	f.mu.Lock()
	claude, gemini := f.claude, f.gemini
	f.mu.Unlock()

	if claude != nil {
		if err := claude.HealthCheck(ctx); err != nil {
			return err
		}
	}
	if gemini != nil {
		if err := gemini.HealthCheck(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases all initialized providers
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.claude != nil {
		f.claude.Close()
		f.claude = nil
	}
	if f.gemini != nil {
		f.gemini.Close()
		f.gemini = nil
	}
	return nil
}
