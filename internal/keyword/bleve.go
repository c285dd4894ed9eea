package keyword

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/regexp"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/hyperjump/wikisearch/internal/models"
)

const (
	contentField = "content"

	termAnalyzer  = "wikisearch_terms"
	termTokenizer = "wikisearch_words"
	// wordPattern matches the runs utils.Tokenize keeps: letters and decimal digits.
	wordPattern = `[\p{L}\p{Nd}]+`
)

// BleveIndex implements TermIndex using Bleve. Term counts come from the
// term locations Bleve records for the content field.
type BleveIndex struct {
	index bleve.Index
}

// bleveDoc is the indexed shape of a document. Only text fields are indexed.
type bleveDoc struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// NewBleveIndex creates or opens a Bleve index at path.
// If you change the index mapping in code, remove the index directory to force a full re-index.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	im, err := newIndexMapping()
	if err != nil {
		return nil, err
	}
	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewBleveMemIndex creates an in-memory Bleve index with the same mapping as NewBleveIndex.
func NewBleveMemIndex() (*BleveIndex, error) {
	im, err := newIndexMapping()
	if err != nil {
		return nil, err
	}
	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// newIndexMapping analyzes text exactly like utils.Tokenize: split on anything that is
// not a letter or digit, lowercase, no stop words, no stemming. "The" stays searchable,
// "don't" is indexed as "don" and "t", and "java" never counts "javanese".
func newIndexMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	if err := im.AddCustomTokenizer(termTokenizer, map[string]interface{}{
		"type":   regexp.Name,
		"regexp": wordPattern,
	}); err != nil {
		return nil, fmt.Errorf("failed to register tokenizer: %w", err)
	}
	if err := im.AddCustomAnalyzer(termAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     termTokenizer,
		"token_filters": []string{lowercase.Name},
	}); err != nil {
		return nil, fmt.Errorf("failed to register analyzer: %w", err)
	}
	im.DefaultAnalyzer = termAnalyzer

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = termAnalyzer
	textFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(contentField, textFieldMapping)
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping
	return im, nil
}

// Index indexes (or replaces) a document's title and content.
func (b *BleveIndex) Index(ctx context.Context, doc *models.Document) error {
	return b.index.Index(doc.ID, bleveDoc{Title: doc.Title, Content: doc.Content})
}

// Lookup returns, for every document whose content contains term, how many times it occurs.
// term must already be normalized (lowercase).
func (b *BleveIndex) Lookup(ctx context.Context, term string) (map[string]int, error) {
	counts := make(map[string]int)
	total, err := b.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to get doc count: %w", err)
	}
	if total == 0 || term == "" {
		return counts, nil
	}
	q := bleve.NewTermQuery(term)
	q.SetField(contentField)
	req := bleve.NewSearchRequestOptions(q, int(total), 0, false)
	req.IncludeLocations = true
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve term lookup failed: %w", err)
	}
	for _, hit := range results.Hits {
		if n := len(hit.Locations[contentField][term]); n > 0 {
			counts[hit.ID] = n
		}
	}
	return counts, nil
}

// GetAllTerms returns every term in the content field dictionary.
func (b *BleveIndex) GetAllTerms() ([]string, error) {
	dict, err := b.index.FieldDict(contentField)
	if err != nil {
		return nil, fmt.Errorf("failed to open term dictionary: %w", err)
	}
	defer dict.Close()

	var terms []string
	for {
		entry, err := dict.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to read term dictionary: %w", err)
		}
		if entry == nil {
			break
		}
		terms = append(terms, entry.Term)
	}
	return terms, nil
}

// GetTermFrequency returns the number of documents whose content contains term.
func (b *BleveIndex) GetTermFrequency(term string) (int, error) {
	q := bleve.NewTermQuery(term)
	q.SetField(contentField)
	results, err := b.index.Search(bleve.NewSearchRequestOptions(q, 0, 0, false))
	if err != nil {
		return 0, fmt.Errorf("failed to search for term frequency: %w", err)
	}
	return int(results.Total), nil
}

// DocumentIDs returns the IDs of all indexed documents.
func (b *BleveIndex) DocumentIDs(ctx context.Context) ([]string, error) {
	total, err := b.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to get doc count: %w", err)
	}
	if total == 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(total), 0, false)
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	ids := make([]string, 0, len(results.Hits))
	for _, hit := range results.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Delete removes a document from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// DocCount returns the total number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
