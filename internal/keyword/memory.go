package keyword

import (
	"context"
	"sync"

	"github.com/hyperjump/wikisearch/internal/models"
	"github.com/hyperjump/wikisearch/pkg/utils"
)

// MemoryIndex is an in-process TermIndex. Safe for concurrent use.
type MemoryIndex struct {
	mu    sync.RWMutex
	terms map[string]map[string]int // term -> doc ID -> count
	docs  map[string][]string       // doc ID -> its terms
}

// NewMemoryIndex returns an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		terms: make(map[string]map[string]int),
		docs:  make(map[string][]string),
	}
}

// Index replaces the document's term counts.
func (m *MemoryIndex) Index(ctx context.Context, doc *models.Document) error {
	counts := utils.TermCounts(doc.Content)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(doc.ID)
	terms := make([]string, 0, len(counts))
	for term, n := range counts {
		postings, ok := m.terms[term]
		if !ok {
			postings = make(map[string]int)
			m.terms[term] = postings
		}
		postings[doc.ID] = n
		terms = append(terms, term)
	}
	m.docs[doc.ID] = terms
	return nil
}

// Lookup returns a copy of the postings for term.
func (m *MemoryIndex) Lookup(ctx context.Context, term string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	postings := m.terms[term]
	out := make(map[string]int, len(postings))
	for id, n := range postings {
		out[id] = n
	}
	return out, nil
}

// Delete removes a document's postings.
func (m *MemoryIndex) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(id)
	return nil
}

func (m *MemoryIndex) deleteLocked(id string) {
	for _, term := range m.docs[id] {
		postings := m.terms[term]
		delete(postings, id)
		if len(postings) == 0 {
			delete(m.terms, term)
		}
	}
	delete(m.docs, id)
}

// GetAllTerms returns the indexed vocabulary.
func (m *MemoryIndex) GetAllTerms() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	terms := make([]string, 0, len(m.terms))
	for term := range m.terms {
		terms = append(terms, term)
	}
	return terms, nil
}

// GetTermFrequency returns the number of documents containing term.
func (m *MemoryIndex) GetTermFrequency(term string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.terms[term]), nil
}

// DocumentIDs returns the IDs of all indexed documents.
func (m *MemoryIndex) DocumentIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	return ids, nil
}

// DocCount returns the number of indexed documents.
func (m *MemoryIndex) DocCount() (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.docs)), nil
}

// Close is a no-op.
func (m *MemoryIndex) Close() error {
	return nil
}
