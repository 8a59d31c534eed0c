package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/services/functions"
)

// FunctionHandler exposes the registered inline function set
type FunctionHandler struct {
	registry *functions.Registry
	logger   arbor.ILogger
}

// NewFunctionHandler creates a new function handler
func NewFunctionHandler(registry *functions.Registry, logger arbor.ILogger) *FunctionHandler {
	return &FunctionHandler{
		registry: registry,
		logger:   logger,
	}
}

// ListHandler handles GET /api/functions requests
func (h *FunctionHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"functions": h.registry.Descriptions(),
	})
}
