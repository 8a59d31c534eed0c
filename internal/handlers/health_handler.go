package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/common"
	"github.com/ternarybob/parley/internal/interfaces"
)

// HealthHandler reports service health
type HealthHandler struct {
	queryService interfaces.QueryService
	logger       arbor.ILogger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(queryService interfaces.QueryService, logger arbor.ILogger) *HealthHandler {
	return &HealthHandler{
		queryService: queryService,
		logger:       logger,
	}
}

// HealthHandler handles GET /api/health requests. The shallow check reports
// process liveness; ?deep=true additionally probes the completion backend.
func (h *HealthHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	status := map[string]string{
		"status":  "ok",
		"version": common.GetVersion(),
	}

	if r.URL.Query().Get("deep") == "true" {
		if err := h.queryService.HealthCheck(r.Context()); err != nil {
			h.logger.Warn().Err(err).Msg("Deep health check failed")
			status["status"] = "degraded"
			status["llm"] = err.Error()
			WriteJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		status["llm"] = "ok"
	}

	WriteJSON(w, http.StatusOK, status)
}
