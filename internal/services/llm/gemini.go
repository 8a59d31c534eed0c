package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/common"
	"github.com/ternarybob/parley/internal/interfaces"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiProvider implements the TextCompletion interface using the Google
// Gemini API. Used as the cheap routing tier.
type GeminiProvider struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	limiter *rate.Limiter
	retry   *RetryConfig
	timeout time.Duration
}

// convertMessagesToGemini converts []interfaces.Message to Gemini Content
// format. System messages are extracted separately for SystemInstruction;
// remaining messages keep their chronological order.
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("messages cannot be empty")
	}

	hasUserMessage := false
	for _, msg := range messages {
		if msg.Role == "user" {
			hasUserMessage = true
			break
		}
	}
	if !hasUserMessage {
		return nil, "", fmt.Errorf("at least one message must have role 'user'")
	}

	contents := make([]*genai.Content, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		geminiRole := genai.RoleUser
		if msg.Role == "assistant" {
			geminiRole = genai.RoleModel
		}

		contents = append(contents, &genai.Content{
			Role:  geminiRole,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		})
	}

	return contents, systemText, nil
}

// NewGeminiProvider creates a Gemini completion provider. requestsPerSecond
// of 0 disables client-side rate limiting.
func NewGeminiProvider(geminiConfig *common.GeminiConfig, requestsPerSecond float64, maxRetries int, logger arbor.ILogger) (*GeminiProvider, error) {
	if geminiConfig.APIKey == "" {
		return nil, fmt.Errorf("Google API key is required (set GEMINI_API_KEY or gemini.api_key in config)")
	}

	if geminiConfig.Model == "" {
		geminiConfig.Model = "gemini-2.5-flash"
	}

	timeout := 60 * time.Second
	if geminiConfig.Timeout != "" {
		parsed, err := time.ParseDuration(geminiConfig.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout duration '%s': %w", geminiConfig.Timeout, err)
		}
		timeout = parsed
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	retryConfig := NewDefaultRetryConfig()
	if maxRetries > 0 {
		retryConfig.MaxRetries = maxRetries
	}

	provider := &GeminiProvider{
		config:  geminiConfig,
		logger:  logger,
		client:  client,
		limiter: limiter,
		retry:   retryConfig,
		timeout: timeout,
	}

	logger.Debug().
		Str("model", geminiConfig.Model).
		Dur("timeout", timeout).
		Int("max_retries", retryConfig.MaxRetries).
		Msg("Gemini provider initialized")

	return provider, nil
}

// Generate produces a completion for the request, retrying rate-limited
// calls with backoff. The request model and temperature override the
// provider defaults when set.
func (p *GeminiProvider) Generate(ctx context.Context, req *interfaces.CompletionRequest) (string, error) {
	if req == nil || len(req.Messages) == 0 {
		return "", fmt.Errorf("completion request requires messages")
	}

	var lastErr error
	for attempt := 0; attempt <= p.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := p.retry.CalculateBackoff(attempt-1, ExtractRetryDelay(lastErr))
			p.logger.Warn().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Gemini rate limited, backing off")
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		response, err := p.generateOnce(ctx, req)
		if err == nil {
			return response, nil
		}
		if !IsRateLimitError(err) {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("Gemini completion failed after %d retries: %w", p.retry.MaxRetries, lastErr)
}

func (p *GeminiProvider) generateOnce(ctx context.Context, req *interfaces.CompletionRequest) (string, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	geminiContents, systemText, err := convertMessagesToGemini(req.Messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages to Gemini format: %w", err)
	}

	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	temperature := req.Temperature
	if temperature == nil {
		temperature = genai.Ptr(p.config.Temperature)
	}
	config := &genai.GenerateContentConfig{
		Temperature: temperature,
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(timeoutCtx, model, geminiContents, config)
	if err != nil {
		return "", fmt.Errorf("Gemini generation failed: %w", err)
	}

	// Iterate candidates until one yields non-empty text
	var response strings.Builder
	if resp != nil && len(resp.Candidates) > 0 {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Gemini API")
	}

	return response.String(), nil
}

// HealthCheck exercises the Gemini API with a minimal probe
func (p *GeminiProvider) HealthCheck(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	response, err := p.Generate(probeCtx, &interfaces.CompletionRequest{
		Messages: []interfaces.Message{{Role: "user", Content: "ping"}},
	})
	if err != nil {
		return fmt.Errorf("Gemini health check failed: %w", err)
	}
	if strings.TrimSpace(response) == "" {
		return fmt.Errorf("Gemini health check returned empty response")
	}
	return nil
}

// Close releases provider resources
func (p *GeminiProvider) Close() error {
	p.logger.Debug().Msg("Closing Gemini provider")
	return nil
}
