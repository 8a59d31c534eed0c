package models

import (
	"time"
)

// Document is a normalized corpus document held in the document store
type Document struct {
	ID      string `json:"id"` // doc_{uuid}
	Source  string `json:"source"`
	Title   string `json:"title"`
	Content string `json:"content"` // Plain text extracted at ingestion

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RetrievedDocument is a ranked text fragment produced per-query by the
// document store. Not persisted; consumed during context assembly and
// discarded.
type RetrievedDocument struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score,omitempty"`
}
