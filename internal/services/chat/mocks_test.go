package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/models"
)

// mockCompletion returns scripted responses keyed by a substring of the
// prompt, falling back to a default. Records every request it receives.
type mockCompletion struct {
	mu       sync.Mutex
	response string
	byPrompt map[string]string
	err      error
	requests []*interfaces.CompletionRequest
}

func (m *mockCompletion) Generate(_ context.Context, req *interfaces.CompletionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.err != nil {
		return "", m.err
	}
	if len(req.Messages) > 0 {
		prompt := req.Messages[len(req.Messages)-1].Content
		for needle, response := range m.byPrompt {
			if needle != "" && strings.Contains(prompt, needle) {
				return response, nil
			}
		}
	}
	return m.response, nil
}

func (m *mockCompletion) HealthCheck(context.Context) error { return nil }
func (m *mockCompletion) Close() error                      { return nil }

func (m *mockCompletion) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *mockCompletion) lastRequest() *interfaces.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

// mockResolver serves one completion backend for every model
type mockResolver struct {
	completion *mockCompletion
}

func (r *mockResolver) ForModel(string) (interfaces.TextCompletion, error) {
	return r.completion, nil
}

// mockDocumentStore returns fixed fragments for every search
type mockDocumentStore struct {
	documents []models.RetrievedDocument
	err       error
}

func (s *mockDocumentStore) Search(context.Context, string, int) ([]models.RetrievedDocument, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.documents, nil
}

// recordingTracker captures metrics calls for assertions
type recordingTracker struct {
	mu         sync.Mutex
	latencies  []string
	selections map[models.PersonaID]string
}

func newRecordingTracker() *recordingTracker {
	return &recordingTracker{selections: make(map[models.PersonaID]string)}
}

func (t *recordingTracker) TrackLatency(operation string, persona models.PersonaID, _ time.Duration, _ string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latencies = append(t.latencies, fmt.Sprintf("%s/%s", operation, persona))
}

func (t *recordingTracker) TrackAgentUsage(persona models.PersonaID, selection string, _ string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selections[persona] = selection
}

func (t *recordingTracker) TrackRetrieval(string, int, string) {}

func (t *recordingTracker) TrackTokenUsage(models.PersonaID, string, int, int, string) {}

func testChatLogger() arbor.ILogger {
	return arbor.NewLogger()
}
