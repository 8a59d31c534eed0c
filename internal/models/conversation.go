package models

import (
	"time"
)

// TurnRole distinguishes user turns from agent turns
type TurnRole string

const (
	TurnRoleUser  TurnRole = "user"
	TurnRoleAgent TurnRole = "agent"
)

// Turn is one user or agent message in conversation history.
// Turns are append-only; insertion order is temporal order.
type Turn struct {
	Role      TurnRole  `json:"role"`
	Content   string    `json:"content"`
	Persona   PersonaID `json:"persona,omitempty"` // Set for agent turns only
	Timestamp time.Time `json:"timestamp"`
}

// StoredTurn wraps a Turn with session identity for durable storage
type StoredTurn struct {
	ID        uint64    `json:"id" badgerhold:"key"`
	SessionID string    `json:"session_id" badgerholdIndex:"SessionID"`
	Role      TurnRole  `json:"role"`
	Content   string    `json:"content"`
	Persona   PersonaID `json:"persona,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ExecutionResult is returned from query execution
type ExecutionResult struct {
	Persona    PersonaID     `json:"agent"`
	Response   string        `json:"response"`
	Validation string        `json:"validation,omitempty"` // Set by review mode only
	Metrics    *QueryMetrics `json:"metrics,omitempty"`
}

// QueryMetrics summarizes per-request timings for the caller
type QueryMetrics struct {
	QueryID          string        `json:"query_id"`
	RoutingLatency   time.Duration `json:"routing_latency"`
	RetrievalLatency time.Duration `json:"retrieval_latency"`
	LLMLatency       time.Duration `json:"llm_latency"`
	TotalLatency     time.Duration `json:"total_latency"`
}
