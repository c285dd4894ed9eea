// Package keyword provides term indices that map a term to per-document occurrence counts.
package keyword

import (
	"context"

	"github.com/hyperjump/wikisearch/internal/models"
)

// TermDictionary exposes the indexed vocabulary for spell checking.
type TermDictionary interface {
	GetAllTerms() ([]string, error)
	// GetTermFrequency returns the number of documents containing term.
	GetTermFrequency(term string) (int, error)
}

// TermIndex stores per-document term frequencies and looks them up by term.
// Lookup returns an empty map, not an error, for a term no document contains.
type TermIndex interface {
	Index(ctx context.Context, doc *models.Document) error
	Lookup(ctx context.Context, term string) (map[string]int, error)
	Delete(ctx context.Context, id string) error
	// DocumentIDs lists every document with postings in the index.
	DocumentIDs(ctx context.Context) ([]string, error)
	TermDictionary
	// DocCount returns the number of indexed documents.
	DocCount() (uint64, error)
	Close() error
}
