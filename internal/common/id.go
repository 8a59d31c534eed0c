package common

import (
	"github.com/google/uuid"
)

// NewQueryID generates a unique query ID with the "query_" prefix.
// Used to correlate routing, retrieval, and completion metrics for one request.
func NewQueryID() string {
	return "query_" + uuid.New().String()[:8]
}

// NewDocumentID generates a unique document ID with the "doc_" prefix
func NewDocumentID() string {
	return "doc_" + uuid.New().String()
}
