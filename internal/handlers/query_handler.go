package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/models"
)

// queryPayload is the JSON body accepted by the query endpoints
type queryPayload struct {
	Query          string `json:"query" validate:"required"`
	Agent          string `json:"agent,omitempty"`
	SessionID      string `json:"session_id,omitempty"`
	IncludeHistory *bool  `json:"include_history,omitempty"`
}

// reviewResponse is the JSON body returned by the review endpoint. The
// answering persona is reported as primary_agent to distinguish it from the
// tester persona that produced the validation.
type reviewResponse struct {
	PrimaryAgent string `json:"primary_agent"`
	Response     string `json:"response"`
	Validation   string `json:"validation"`
}

// QueryHandler handles query execution HTTP requests
type QueryHandler struct {
	queryService interfaces.QueryService
	validate     *validator.Validate
	logger       arbor.ILogger
}

// NewQueryHandler creates a new query handler with dependencies
func NewQueryHandler(queryService interfaces.QueryService, logger arbor.ILogger) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
		validate:     validator.New(),
		logger:       logger,
	}
}

// ExecuteHandler handles POST /api/query requests
func (h *QueryHandler) ExecuteHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.queryService.Execute(r.Context(), req)
	if err != nil {
		h.writeExecutionError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// ReviewHandler handles POST /api/review requests. The answer is validated
// with a second pass through the tester persona.
func (h *QueryHandler) ReviewHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.queryService.ExecuteWithReview(r.Context(), req)
	if err != nil {
		h.writeExecutionError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, reviewResponse{
		PrimaryAgent: string(result.Persona),
		Response:     result.Response,
		Validation:   result.Validation,
	})
}

// SalesHandler handles POST /api/sales requests. The query goes straight to
// the sales persona, bypassing routing.
func (h *QueryHandler) SalesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	req.Persona = string(models.PersonaSales)

	result, err := h.queryService.Execute(r.Context(), req)
	if err != nil {
		h.writeExecutionError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// decodeRequest parses and validates the JSON body shared by the query
// endpoints. Persona overrides are validated here so unknown personas fail
// with a 400 before touching the pipeline.
func (h *QueryHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (*interfaces.QueryRequest, bool) {
	var payload queryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return nil, false
	}

	if err := h.validate.Struct(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "Field 'query' is required")
		return nil, false
	}

	if strings.TrimSpace(payload.Agent) != "" {
		if _, err := models.ParsePersonaID(payload.Agent); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
	}

	includeHistory := true
	if payload.IncludeHistory != nil {
		includeHistory = *payload.IncludeHistory
	}

	return &interfaces.QueryRequest{
		Query:          payload.Query,
		Persona:        payload.Agent,
		SessionID:      payload.SessionID,
		IncludeHistory: includeHistory,
	}, true
}

func (h *QueryHandler) writeExecutionError(w http.ResponseWriter, err error) {
	h.logger.Error().Err(err).Msg("Query execution failed")

	if errors.Is(err, models.ErrUnknownPersona) || errors.Is(err, models.ErrReservedPersona) {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteError(w, http.StatusInternalServerError, "Query execution failed")
}
