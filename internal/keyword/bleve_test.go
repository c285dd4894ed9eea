package keyword

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/wikisearch/internal/models"
	"github.com/hyperjump/wikisearch/pkg/utils"
)

func TestBleveIndex_ReopenKeepsCounts(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "bleve")
	ctx := context.Background()

	idx1, err := NewBleveIndex(indexPath)
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	doc := &models.Document{ID: "doc1", Title: "T", Content: "uniqueword uniqueword"}
	if err := idx1.Index(ctx, doc); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if err := idx1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	idx2, err := NewBleveIndex(indexPath)
	if err != nil {
		t.Fatalf("NewBleveIndex (open existing): %v", err)
	}
	defer func() {
		_ = idx2.Close()
	}()
	got, err := idx2.Lookup(ctx, "uniqueword")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got["doc1"] != 2 {
		t.Errorf("after reopen, doc1 count = %d, want 2", got["doc1"])
	}
}

func TestBleveIndex_TitleNotCounted(t *testing.T) {
	idx, err := NewBleveMemIndex()
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = idx.Close()
	}()
	ctx := context.Background()
	doc := &models.Document{ID: "doc1", Title: "Java", Content: "coffee beans"}
	if err := idx.Index(ctx, doc); err != nil {
		t.Fatal(err)
	}
	got, err := idx.Lookup(ctx, "java")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("title-only match should not count: %v", got)
	}
}

func TestNewBleveIndex_createsDir(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "sub", "bleve")

	idx, err := NewBleveIndex(indexPath)
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	_ = idx.Close()

	if _, err := os.Stat(indexPath); err != nil {
		t.Errorf("index path should exist: %v", err)
	}
}

func TestBleveIndex_CountsMatchTokenizer(t *testing.T) {
	idx, err := NewBleveMemIndex()
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = idx.Close()
	}()
	ctx := context.Background()
	content := "The cat is not the dog. Don't e-mail THE Java8 user; it's 3.14 and naïve."
	if err := idx.Index(ctx, &models.Document{ID: "doc1", Content: content}); err != nil {
		t.Fatal(err)
	}
	for term, want := range utils.TermCounts(content) {
		got, err := idx.Lookup(ctx, term)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", term, err)
		}
		if got["doc1"] != want {
			t.Errorf("Lookup(%q) = %d, want %d", term, got["doc1"], want)
		}
	}
	for _, term := range []string{"don't", "e-mail", "3.14"} {
		got, err := idx.Lookup(ctx, term)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("Lookup(%q) = %v, want no postings for an unsplit token", term, got)
		}
	}
}
