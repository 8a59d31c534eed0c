package interfaces

import (
	"context"

	"github.com/ternarybob/parley/internal/models"
)

// QueryRequest carries one inbound query through the execution pipeline
type QueryRequest struct {
	// Query is the user's natural-language question
	Query string `json:"query" validate:"required"`

	// Persona optionally forces a specific persona, bypassing routing.
	// Unknown values are a usage error, not a silent fallback.
	Persona string `json:"agent,omitempty"`

	// SessionID scopes conversation history. Empty selects the default session.
	SessionID string `json:"session_id,omitempty"`

	// IncludeHistory controls whether recent turns are injected into the
	// prompt context. Defaults to true at the HTTP edge.
	IncludeHistory bool `json:"-"`
}

// QueryService is the orchestrating entry point: routing, context assembly,
// completion, post-processing, and history recording.
type QueryService interface {
	// Execute answers a query with the routed (or overridden) persona.
	Execute(ctx context.Context, req *QueryRequest) (*models.ExecutionResult, error)

	// ExecuteWithReview answers a query and validates the answer with a
	// second, history-free pass through the tester persona.
	ExecuteWithReview(ctx context.Context, req *QueryRequest) (*models.ExecutionResult, error)

	// HealthCheck verifies the downstream completion backend is operational.
	HealthCheck(ctx context.Context) error
}
