package models

import (
	"time"
)

// LatencyRecord tracks how long one pipeline stage took for a query
type LatencyRecord struct {
	ID        uint64        `json:"id" badgerhold:"key"`
	Timestamp time.Time     `json:"timestamp"`
	Operation string        `json:"operation"` // routing, retrieval, llm_response, total, error
	Persona   PersonaID     `json:"persona"`
	Latency   time.Duration `json:"latency"`
	QueryID   string        `json:"query_id"`
}

// AgentUsageRecord tracks which persona handled a query and how it was selected
type AgentUsageRecord struct {
	ID        uint64    `json:"id" badgerhold:"key"`
	Timestamp time.Time `json:"timestamp"`
	Persona   PersonaID `json:"persona"`
	Selection string    `json:"selection"` // routed, direct, trigger, escalated, system
	QueryID   string    `json:"query_id"`
}

// RetrievalRecord tracks document retrieval volume per query
type RetrievalRecord struct {
	ID            uint64    `json:"id" badgerhold:"key"`
	Timestamp     time.Time `json:"timestamp"`
	Query         string    `json:"query"`
	DocumentCount int       `json:"document_count"`
	QueryID       string    `json:"query_id"`
}

// TokenUsageRecord tracks estimated token consumption per completion
type TokenUsageRecord struct {
	ID               uint64    `json:"id" badgerhold:"key"`
	Timestamp        time.Time `json:"timestamp"`
	Persona          PersonaID `json:"persona"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	QueryID          string    `json:"query_id"`
}
