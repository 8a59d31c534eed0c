package server

import (
	"net/http"

	"github.com/ternarybob/parley/internal/handlers"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Query execution
	mux.HandleFunc("/api/query", s.app.QueryHandler.ExecuteHandler)   // POST - execute a query
	mux.HandleFunc("/api/review", s.app.QueryHandler.ReviewHandler)   // POST - execute with tester validation
	mux.HandleFunc("/api/sales", s.app.QueryHandler.SalesHandler)     // POST - execute with the sales persona

	// API routes - Documents
	mux.HandleFunc("/api/initialize", s.app.DocumentHandler.InitializeHandler) // POST - re-ingest the corpus
	mux.HandleFunc("/api/documents/stats", s.app.DocumentHandler.StatsHandler) // GET - document counts

	// API routes - Functions
	mux.HandleFunc("/api/functions", s.app.FunctionHandler.ListHandler) // GET - callable function catalog

	// API routes - System
	mux.HandleFunc("/api/health", s.app.HealthHandler.HealthHandler) // GET - health (?deep=true probes providers)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.notFoundHandler)

	return mux
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	handlers.WriteError(w, http.StatusNotFound, "Not found")
}
