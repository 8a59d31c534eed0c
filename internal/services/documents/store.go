// Package documents handles corpus ingestion and per-query retrieval.
package documents

import (
	"context"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/models"
)

// stopwords are excluded from query term matching
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "what": {}, "how": {}, "does": {},
	"this": {}, "that": {}, "with": {}, "from": {}, "will": {}, "about": {},
	"have": {}, "has": {}, "was": {}, "were": {}, "is": {}, "a": {}, "an": {},
	"of": {}, "to": {}, "in": {}, "on": {}, "it": {}, "my": {}, "do": {},
}

// Store implements keyword-ranked retrieval over the persisted corpus.
// Each hit contributes the best-matching paragraph of its document as the
// retrieved fragment.
type Store struct {
	storage interfaces.DocumentStorage
	logger  arbor.ILogger
}

// NewStore creates a retrieval store over document storage
func NewStore(storage interfaces.DocumentStorage, logger arbor.ILogger) *Store {
	return &Store{
		storage: storage,
		logger:  logger,
	}
}

// Search returns up to k documents ranked by query term overlap. An empty
// corpus or a query with no usable terms yields an empty result.
func (s *Store) Search(ctx context.Context, query string, k int) ([]models.RetrievedDocument, error) {
	if k <= 0 {
		k = 4
	}

	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	docs, err := s.storage.ListDocuments(0, 0)
	if err != nil {
		return nil, err
	}

	type scoredDoc struct {
		doc      *models.Document
		score    float64
		fragment string
	}

	var scored []scoredDoc
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score, fragment := scoreDocument(doc, terms)
		if score > 0 {
			scored = append(scored, scoredDoc{doc: doc, score: score, fragment: fragment})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > k {
		scored = scored[:k]
	}

	results := make([]models.RetrievedDocument, 0, len(scored))
	for _, sd := range scored {
		results = append(results, models.RetrievedDocument{
			Text:   sd.fragment,
			Source: sd.doc.Source,
			Score:  sd.score,
		})
	}

	s.logger.Debug().
		Str("query", query).
		Int("matches", len(results)).
		Msg("Corpus search completed")

	return results, nil
}

// queryTerms extracts lowercase match terms from a query, dropping
// stopwords and short tokens
func queryTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	var terms []string
	for _, field := range fields {
		if len(field) < 3 {
			continue
		}
		if _, skip := stopwords[field]; skip {
			continue
		}
		terms = append(terms, field)
	}
	return terms
}

// scoreDocument ranks a document by term frequency, weighting title hits,
// and returns the paragraph with the most distinct term matches.
func scoreDocument(doc *models.Document, terms []string) (float64, string) {
	content := strings.ToLower(doc.Content)
	title := strings.ToLower(doc.Title)

	total := 0
	for _, term := range terms {
		total += strings.Count(content, term)
		total += strings.Count(title, term) * 3
	}
	if total == 0 {
		return 0, ""
	}

	score := float64(total) / float64(len(terms))
	return score, bestParagraph(doc.Content, terms)
}

// bestParagraph selects the paragraph containing the most distinct query
// terms, falling back to the document head.
func bestParagraph(content string, terms []string) string {
	paragraphs := strings.Split(content, "\n\n")

	best := ""
	bestHits := 0
	for _, paragraph := range paragraphs {
		trimmed := strings.TrimSpace(paragraph)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		hits := 0
		for _, term := range terms {
			if strings.Contains(lower, term) {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			best = trimmed
		}
	}

	if best == "" {
		best = strings.TrimSpace(content)
		if len(best) > 500 {
			best = best[:500]
		}
	}
	return best
}
