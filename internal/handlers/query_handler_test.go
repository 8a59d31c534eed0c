package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/models"
)

// mockQueryService implements interfaces.QueryService for testing
type mockQueryService struct {
	executeFunc func(ctx context.Context, req *interfaces.QueryRequest) (*models.ExecutionResult, error)
	reviewFunc  func(ctx context.Context, req *interfaces.QueryRequest) (*models.ExecutionResult, error)
}

func (m *mockQueryService) Execute(ctx context.Context, req *interfaces.QueryRequest) (*models.ExecutionResult, error) {
	if m.executeFunc != nil {
		return m.executeFunc(ctx, req)
	}
	return &models.ExecutionResult{Persona: models.PersonaWriter, Response: "ok"}, nil
}

func (m *mockQueryService) ExecuteWithReview(ctx context.Context, req *interfaces.QueryRequest) (*models.ExecutionResult, error) {
	if m.reviewFunc != nil {
		return m.reviewFunc(ctx, req)
	}
	return &models.ExecutionResult{Persona: models.PersonaWriter, Response: "ok", Validation: "accurate"}, nil
}

func (m *mockQueryService) HealthCheck(context.Context) error { return nil }

func postQuery(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestExecuteHandler_Success(t *testing.T) {
	service := &mockQueryService{
		executeFunc: func(_ context.Context, req *interfaces.QueryRequest) (*models.ExecutionResult, error) {
			assert.Equal(t, "What is covered?", req.Query)
			assert.True(t, req.IncludeHistory)
			return &models.ExecutionResult{Persona: models.PersonaWriter, Response: "Coverage answer."}, nil
		},
	}
	handler := NewQueryHandler(service, arbor.NewLogger())

	rec := postQuery(handler.ExecuteHandler, `{"query": "What is covered?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var result models.ExecutionResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, models.PersonaWriter, result.Persona)
	assert.Equal(t, "Coverage answer.", result.Response)
}

func TestExecuteHandler_PersonaOverridePassedThrough(t *testing.T) {
	service := &mockQueryService{
		executeFunc: func(_ context.Context, req *interfaces.QueryRequest) (*models.ExecutionResult, error) {
			assert.Equal(t, "developer", req.Persona)
			return &models.ExecutionResult{Persona: models.PersonaDeveloper, Response: "done"}, nil
		},
	}
	handler := NewQueryHandler(service, arbor.NewLogger())

	rec := postQuery(handler.ExecuteHandler, `{"query": "explain channels", "agent": "developer"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExecuteHandler_UnknownPersonaRejected(t *testing.T) {
	handler := NewQueryHandler(&mockQueryService{}, arbor.NewLogger())

	rec := postQuery(handler.ExecuteHandler, `{"query": "anything", "agent": "banana"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postQuery(handler.ExecuteHandler, `{"query": "anything", "agent": "router"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteHandler_MissingQueryRejected(t *testing.T) {
	handler := NewQueryHandler(&mockQueryService{}, arbor.NewLogger())

	rec := postQuery(handler.ExecuteHandler, `{"agent": "writer"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postQuery(handler.ExecuteHandler, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteHandler_MethodNotAllowed(t *testing.T) {
	handler := NewQueryHandler(&mockQueryService{}, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/query", nil)
	rec := httptest.NewRecorder()
	handler.ExecuteHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestExecuteHandler_IncludeHistoryFalse(t *testing.T) {
	service := &mockQueryService{
		executeFunc: func(_ context.Context, req *interfaces.QueryRequest) (*models.ExecutionResult, error) {
			assert.False(t, req.IncludeHistory)
			return &models.ExecutionResult{Persona: models.PersonaWriter, Response: "ok"}, nil
		},
	}
	handler := NewQueryHandler(service, arbor.NewLogger())

	rec := postQuery(handler.ExecuteHandler, `{"query": "q", "include_history": false}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExecuteHandler_ServiceFailure(t *testing.T) {
	service := &mockQueryService{
		executeFunc: func(context.Context, *interfaces.QueryRequest) (*models.ExecutionResult, error) {
			return nil, errors.New("backend exploded")
		},
	}
	handler := NewQueryHandler(service, arbor.NewLogger())

	rec := postQuery(handler.ExecuteHandler, `{"query": "q"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSalesHandler_ForcesSalesPersona(t *testing.T) {
	service := &mockQueryService{
		executeFunc: func(_ context.Context, req *interfaces.QueryRequest) (*models.ExecutionResult, error) {
			assert.Equal(t, "sales", req.Persona)
			return &models.ExecutionResult{Persona: models.PersonaSales, Response: "Shall we set up a call?"}, nil
		},
	}
	handler := NewQueryHandler(service, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/sales", strings.NewReader(`{"query": "I want to buy a policy"}`))
	rec := httptest.NewRecorder()
	handler.SalesHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReviewHandler_Success(t *testing.T) {
	service := &mockQueryService{
		reviewFunc: func(_ context.Context, req *interfaces.QueryRequest) (*models.ExecutionResult, error) {
			return &models.ExecutionResult{
				Persona:    models.PersonaWriter,
				Response:   "Flood damage is covered.",
				Validation: "The answer is accurate.",
			}, nil
		},
	}
	handler := NewQueryHandler(service, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/review", strings.NewReader(`{"query": "Is flood damage covered?"}`))
	rec := httptest.NewRecorder()
	handler.ReviewHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, "writer", result["primary_agent"])
	assert.Equal(t, "Flood damage is covered.", result["response"])
	assert.Equal(t, "The answer is accurate.", result["validation"])
	assert.NotContains(t, result, "agent")
}

func TestExecuteHandler_PersonaErrorsMapToBadRequest(t *testing.T) {
	service := &mockQueryService{
		executeFunc: func(context.Context, *interfaces.QueryRequest) (*models.ExecutionResult, error) {
			return nil, fmt.Errorf("%w %q", models.ErrUnknownPersona, "banana")
		},
	}
	handler := NewQueryHandler(service, arbor.NewLogger())

	rec := postQuery(handler.ExecuteHandler, `{"query": "q"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteHandler_InternalPersonaFailureIsNotBadRequest(t *testing.T) {
	// the error text mentions a persona but carries no caller-error sentinel
	service := &mockQueryService{
		executeFunc: func(context.Context, *interfaces.QueryRequest) (*models.ExecutionResult, error) {
			return nil, errors.New("resolved persona unavailable: registry closed")
		},
	}
	handler := NewQueryHandler(service, arbor.NewLogger())

	rec := postQuery(handler.ExecuteHandler, `{"query": "q"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
