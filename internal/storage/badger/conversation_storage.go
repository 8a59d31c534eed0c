package badger

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ConversationStorage implements the ConversationStorage interface for Badger
type ConversationStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewConversationStorage creates a new ConversationStorage instance
func NewConversationStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ConversationStorage {
	return &ConversationStorage{
		db:     db,
		logger: logger,
	}
}

// AppendTurns stores turns in order for a session. The badgerhold NextSequence
// key preserves insertion order across restarts.
func (s *ConversationStorage) AppendTurns(sessionID string, turns []models.Turn) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	for _, turn := range turns {
		stored := models.StoredTurn{
			SessionID: sessionID,
			Role:      turn.Role,
			Content:   turn.Content,
			Persona:   turn.Persona,
			Timestamp: turn.Timestamp,
		}
		if err := s.db.Store().Insert(badgerhold.NextSequence(), &stored); err != nil {
			return fmt.Errorf("failed to append turn: %w", err)
		}
	}
	return nil
}

// GetTurns returns the most recent limit turns for a session, oldest first.
// limit <= 0 returns all turns.
func (s *ConversationStorage) GetTurns(sessionID string, limit int) ([]models.Turn, error) {
	var stored []models.StoredTurn
	err := s.db.Store().Find(&stored, badgerhold.Where("SessionID").Eq(sessionID).Index("SessionID").SortBy("ID"))
	if err != nil {
		return nil, fmt.Errorf("failed to load turns for session %s: %w", sessionID, err)
	}

	if limit > 0 && len(stored) > limit {
		stored = stored[len(stored)-limit:]
	}

	turns := make([]models.Turn, len(stored))
	for i, st := range stored {
		turns[i] = models.Turn{
			Role:      st.Role,
			Content:   st.Content,
			Persona:   st.Persona,
			Timestamp: st.Timestamp,
		}
	}
	return turns, nil
}
