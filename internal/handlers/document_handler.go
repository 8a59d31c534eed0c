package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/interfaces"
)

// CorpusIngester loads the configured corpus into document storage
type CorpusIngester interface {
	IngestDir() (int, error)
}

// DocumentHandler handles corpus and document storage HTTP requests
type DocumentHandler struct {
	storage  interfaces.DocumentStorage
	ingester CorpusIngester
	logger   arbor.ILogger
}

// NewDocumentHandler creates a new document handler with dependencies
func NewDocumentHandler(storage interfaces.DocumentStorage, ingester CorpusIngester, logger arbor.ILogger) *DocumentHandler {
	return &DocumentHandler{
		storage:  storage,
		ingester: ingester,
		logger:   logger,
	}
}

// InitializeHandler handles POST /api/initialize requests by re-ingesting
// the corpus directory
func (h *DocumentHandler) InitializeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	count, err := h.ingester.IngestDir()
	if err != nil {
		h.logger.Error().Err(err).Msg("Corpus ingestion failed")
		WriteError(w, http.StatusInternalServerError, "Corpus ingestion failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"documents": count,
	})
}

// StatsHandler handles GET /api/documents/stats requests
func (h *DocumentHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	count, err := h.storage.CountDocuments()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to count documents")
		WriteError(w, http.StatusInternalServerError, "Failed to read document stats")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"document_count": count,
	})
}
