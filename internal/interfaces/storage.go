package interfaces

import (
	"time"

	"github.com/ternarybob/parley/internal/models"
)

// ConversationStorage persists conversation turns per session
type ConversationStorage interface {
	// AppendTurns stores turns in order for a session
	AppendTurns(sessionID string, turns []models.Turn) error

	// GetTurns returns the most recent limit turns for a session,
	// oldest first. limit <= 0 returns all turns.
	GetTurns(sessionID string, limit int) ([]models.Turn, error)
}

// MetricsStorage persists query metrics records
type MetricsStorage interface {
	SaveLatency(record *models.LatencyRecord) error
	SaveAgentUsage(record *models.AgentUsageRecord) error
	SaveRetrieval(record *models.RetrievalRecord) error
	SaveTokenUsage(record *models.TokenUsageRecord) error

	// Sweep deletes records older than the cutoff and returns the count removed
	Sweep(cutoff time.Time) (int, error)
}

// StorageManager provides access to all storage backends
type StorageManager interface {
	DocumentStorage() DocumentStorage
	ConversationStorage() ConversationStorage
	MetricsStorage() MetricsStorage
	Close() error
}
