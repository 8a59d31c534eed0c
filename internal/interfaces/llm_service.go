package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// CompletionRequest is a provider-agnostic text generation request.
// Model selects the provider tier ("claude-..." or "gemini-..."); the
// factory detects the provider from the model name.
type CompletionRequest struct {
	Messages []Message
	Model    string
	// Temperature nil means the provider's configured default applies.
	// An explicit zero is sent as-is (deterministic sampling).
	Temperature *float32
	MaxTokens   int
}

// TextCompletion defines the interface for language model completions.
// Implementations are stateless from the caller's perspective and safe
// to invoke concurrently across requests.
type TextCompletion interface {
	// Generate produces a completion for the request. It returns a typed
	// error (never a silent empty string) on backend failure; callers decide
	// how to degrade.
	Generate(ctx context.Context, req *CompletionRequest) (string, error)

	// HealthCheck verifies the completion backend is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases provider resources.
	Close() error
}
