package interfaces

import (
	"context"

	"github.com/ternarybob/parley/internal/models"
)

// DocumentStore provides ranked similarity search over the ingested corpus.
// Returns fewer than k results when the corpus is small; an empty corpus
// yields an empty slice, not an error.
type DocumentStore interface {
	Search(ctx context.Context, query string, k int) ([]models.RetrievedDocument, error)
}

// DocumentStorage is the persistence interface behind the document store
type DocumentStorage interface {
	SaveDocument(doc *models.Document) error
	GetDocument(id string) (*models.Document, error)
	ListDocuments(limit, offset int) ([]*models.Document, error)
	CountDocuments() (int, error)
	DeleteBySource(source string) error
}
