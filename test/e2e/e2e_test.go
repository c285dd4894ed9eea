package e2e

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/wikisearch/internal/extract"
	"github.com/hyperjump/wikisearch/internal/fileid"
	"github.com/hyperjump/wikisearch/internal/indexer"
	"github.com/hyperjump/wikisearch/internal/keyword"
	"github.com/hyperjump/wikisearch/internal/models"
	"github.com/hyperjump/wikisearch/internal/search"
	"github.com/hyperjump/wikisearch/internal/storage"
)

const corpusSize = 60

type stack struct {
	engine  *search.Engine
	indexer *indexer.Indexer
}

func newStack(t *testing.T, backend string) *stack {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	terms, err := keyword.NewTermIndex(backend, filepath.Join(dir, "index-"+backend))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = terms.Close() })
	return &stack{
		engine:  search.NewEngine(terms, store),
		indexer: indexer.NewIndexer(store, terms, extract.NewExtractor()),
	}
}

func checkResults(t *testing.T, got, want []*models.SearchResult) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d results, want %d\ngot:  %s\nwant: %s", len(got), len(want), describe(got), describe(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Score != want[i].Score || got[i].Rank != want[i].Rank {
			t.Errorf("result %d = {%d %s %d}, want {%d %s %d}",
				i, got[i].Rank, got[i].ID, got[i].Score, want[i].Rank, want[i].ID, want[i].Score)
		}
	}
}

func describe(results []*models.SearchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.ID)
	}
	return out
}

func TestE2E_BooleanQueriesAcrossBackends(t *testing.T) {
	corpus := BuildCorpus(corpusSize)
	for _, backend := range []string{keyword.BackendMemory, keyword.BackendSQLite, keyword.BackendBleve} {
		t.Run(backend, func(t *testing.T) {
			s := newStack(t, backend)
			ctx := context.Background()
			for _, input := range corpus.ToDocumentInputs() {
				if _, err := s.indexer.IndexDocument(ctx, input); err != nil {
					t.Fatalf("index %q: %v", input.ID, err)
				}
			}
			for _, tc := range corpus.Queries {
				t.Run(tc.Description, func(t *testing.T) {
					query := tc.Query
					resp, err := s.engine.Search(ctx, &query)
					if err != nil {
						t.Fatalf("search: %v", err)
					}
					checkResults(t, resp.Results, corpus.Expected(tc.Query, nil))
					for _, r := range resp.Results {
						if r.Title == "" || r.Source != r.ID {
							t.Errorf("result %q not decorated: %+v", r.ID, r)
						}
					}
				})
			}
		})
	}
}

// TestE2E_FileIndexingSearch writes the corpus as files of every supported type, indexes
// the directory, and runs the same queries against file document IDs.
func TestE2E_FileIndexingSearch(t *testing.T) {
	dir := t.TempDir()
	docDir := filepath.Join(dir, "docs")
	if err := os.MkdirAll(filepath.Join(docDir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}

	corpus := BuildCorpus(corpusSize)
	ids := make(map[string]string, len(corpus.Pages))
	for i, p := range corpus.Pages {
		ext := SupportedFileExtensions[i%len(SupportedFileExtensions)]
		sub := docDir
		if i%2 == 1 {
			sub = filepath.Join(docDir, "nested")
		}
		path := filepath.Join(sub, filepath.Base(p.ID)+ext)
		data, err := WriteMinimalFile(ext, p.Title, p.Content)
		if err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
		absPath, _ := filepath.Abs(path)
		ids[p.ID] = fileid.FileDocID(absPath)
	}

	s := newStack(t, keyword.BackendBleve)
	ctx := context.Background()
	stats, err := s.indexer.IndexDirectory(ctx, docDir, SupportedFileExtensions)
	if err != nil {
		t.Fatalf("index directory: %v", err)
	}
	if stats.Indexed != corpusSize || stats.Skipped != 0 {
		t.Fatalf("first pass stats = %+v, want %d indexed", stats, corpusSize)
	}

	for _, tc := range corpus.Queries {
		t.Run(tc.Description, func(t *testing.T) {
			query := tc.Query
			resp, err := s.engine.Search(ctx, &query)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			checkResults(t, resp.Results, corpus.Expected(tc.Query, ids))
		})
	}

	stats, err = s.indexer.IndexDirectory(ctx, docDir, SupportedFileExtensions)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if stats.Skipped != corpusSize || stats.Indexed != 0 {
		t.Errorf("second pass stats = %+v, want all %d skipped", stats, corpusSize)
	}
}
