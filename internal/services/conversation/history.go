// Package conversation keeps per-session conversation history and renders
// it for prompt assembly.
package conversation

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/models"
)

// History holds the turn log for a single session. An exchange (user turn
// plus agent turn) is appended atomically so concurrent readers never see a
// half-recorded exchange.
type History struct {
	mu        sync.Mutex
	sessionID string
	turns     []models.Turn
	storage   interfaces.ConversationStorage
	logger    arbor.ILogger
}

// NewHistory creates an in-memory history for a session. storage may be nil;
// when set, exchanges are also persisted and prior turns are loaded on start.
func NewHistory(sessionID string, storage interfaces.ConversationStorage, logger arbor.ILogger) (*History, error) {
	h := &History{
		sessionID: sessionID,
		storage:   storage,
		logger:    logger,
	}

	if storage != nil {
		turns, err := storage.GetTurns(sessionID, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to load conversation history for session %s: %w", sessionID, err)
		}
		h.turns = turns
		if len(turns) > 0 {
			logger.Debug().
				Str("session_id", sessionID).
				Int("turns", len(turns)).
				Msg("Restored conversation history")
		}
	}

	return h, nil
}

// SessionID returns the session this history belongs to
func (h *History) SessionID() string {
	return h.sessionID
}

// AppendExchange records a completed user/agent exchange. Both turns land
// together or not at all.
func (h *History) AppendExchange(query, response string, persona models.PersonaID) {
	now := time.Now()
	userTurn := models.Turn{Role: models.TurnRoleUser, Content: query, Timestamp: now}
	agentTurn := models.Turn{Role: models.TurnRoleAgent, Content: response, Persona: persona, Timestamp: now}

	h.mu.Lock()
	h.turns = append(h.turns, userTurn, agentTurn)
	h.mu.Unlock()

	if h.storage != nil {
		if err := h.storage.AppendTurns(h.sessionID, []models.Turn{userTurn, agentTurn}); err != nil {
			h.logger.Warn().
				Err(err).
				Str("session_id", h.sessionID).
				Msg("Failed to persist conversation exchange")
		}
	}
}

// Recent returns the last n exchanges (2n turns), oldest first. n <= 0
// returns all turns. The returned slice is a copy.
func (h *History) Recent(n int) []models.Turn {
	h.mu.Lock()
	defer h.mu.Unlock()

	turns := h.turns
	if n > 0 && len(turns) > 2*n {
		turns = turns[len(turns)-2*n:]
	}
	out := make([]models.Turn, len(turns))
	copy(out, turns)
	return out
}

// Len returns the number of recorded turns
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// RawUserQueries returns the user-side contents in submission order,
// capped at limit when limit > 0.
func (h *History) RawUserQueries(limit int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var queries []string
	for _, t := range h.turns {
		if t.Role == models.TurnRoleUser {
			queries = append(queries, t.Content)
		}
	}
	if limit > 0 && len(queries) > limit {
		queries = queries[len(queries)-limit:]
	}
	return queries
}

// FormattedTranscript renders the last n exchanges for prompt inclusion.
// User turns render as "User: ...", agent turns under the answering
// persona's display name. Returns "" when the history is empty.
func (h *History) FormattedTranscript(n int) string {
	turns := h.Recent(n)
	if len(turns) == 0 {
		return ""
	}

	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case models.TurnRoleUser:
			lines = append(lines, "User: "+t.Content)
		case models.TurnRoleAgent:
			name := t.Persona.DisplayName()
			if name == "" {
				name = "Agent"
			}
			lines = append(lines, name+": "+t.Content)
		}
	}
	return strings.Join(lines, "\n\n")
}

// Manager hands out session histories, creating them on first use
type Manager struct {
	mu        sync.Mutex
	histories map[string]*History
	storage   interfaces.ConversationStorage
	logger    arbor.ILogger
}

// NewManager creates a session history manager. storage may be nil for
// memory-only operation.
func NewManager(storage interfaces.ConversationStorage, logger arbor.ILogger) *Manager {
	return &Manager{
		histories: make(map[string]*History),
		storage:   storage,
		logger:    logger,
	}
}

// Session returns the history for sessionID, creating it if needed
func (m *Manager) Session(sessionID string) (*History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.histories[sessionID]; ok {
		return h, nil
	}
	h, err := NewHistory(sessionID, m.storage, m.logger)
	if err != nil {
		return nil, err
	}
	m.histories[sessionID] = h
	return h, nil
}
