// Package indexer stores documents and writes their term counts to the term index.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hyperjump/wikisearch/internal/extract"
	"github.com/hyperjump/wikisearch/internal/fileid"
	"github.com/hyperjump/wikisearch/internal/keyword"
	"github.com/hyperjump/wikisearch/internal/models"
	"github.com/hyperjump/wikisearch/internal/storage"
	"go.uber.org/zap"
)

// Indexer keeps document storage and the term index in step.
type Indexer struct {
	storage   storage.Storage
	termIndex keyword.TermIndex
	extractor *extract.Extractor
	logger    *zap.Logger // optional; when set, logs debug events
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (file indexed, document deleted, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer with the given dependencies.
// extractor may be nil; when nil, IndexFile treats all files as plain text.
func NewIndexer(store storage.Storage, termIndex keyword.TermIndex, extractor *extract.Extractor, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		storage:   store,
		termIndex: termIndex,
		extractor: extractor,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexDocument stores a document and indexes its terms. A document with the same ID
// is replaced. The ID defaults to a new UUID and is written back to input.
func (idx *Indexer) IndexDocument(ctx context.Context, input *models.DocumentInput) (*models.Document, error) {
	if input.ID == "" {
		input.ID = uuid.New().String()
	}
	doc := &models.Document{
		ID:       input.ID,
		Title:    strings.TrimSpace(input.Title),
		Source:   input.Source,
		Content:  Preprocess(input.Content),
		Metadata: input.Metadata,
	}
	if err := idx.store(ctx, doc); err != nil {
		return nil, err
	}
	if err := idx.termIndex.Index(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to index terms: %w", err)
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer document indexed", zap.String("id", doc.ID), zap.Int("bytes", len(doc.Content)))
	}
	return doc, nil
}

func (idx *Indexer) store(ctx context.Context, doc *models.Document) error {
	existing, err := idx.storage.GetDocument(ctx, doc.ID)
	switch {
	case err == nil:
		doc.CreatedAt = existing.CreatedAt
		if err := idx.storage.UpdateDocument(ctx, doc); err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}
		return nil
	case errors.Is(err, storage.ErrNotFound):
		if err := idx.storage.CreateDocument(ctx, doc); err != nil {
			return fmt.Errorf("failed to store document: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("failed to look up document: %w", err)
	}
}

const (
	metaKeySourcePath  = "source_path"
	metaKeySourceMtime = "source_mtime"
	metaKeySourceSize  = "source_size"
)

// IndexFile reads a file from path and indexes it. The document ID is derived from the
// absolute path so re-indexing updates the same document. If allowedExts is non-empty,
// the file's extension must be in the list (case-insensitive).
// Returns skipped=true when the file is already indexed with the same mtime and size.
func (idx *Indexer) IndexFile(ctx context.Context, path string, allowedExts []string) (skipped bool, err error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return false, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return false, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("not a regular file: %s", absPath)
	}
	docID := fileid.FileDocID(absPath)
	if idx.unchanged(ctx, absPath, docID, info) {
		if idx.logger != nil {
			idx.logger.Debug("indexer skipping unchanged file", zap.String("path", absPath))
		}
		return true, nil
	}
	content, err := idx.extractContent(absPath)
	if err != nil {
		return false, fmt.Errorf("extract content: %w", err)
	}
	title := content.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath))
	}
	input := &models.DocumentInput{
		ID:      docID,
		Title:   title,
		Source:  absPath,
		Content: content.Text,
		Metadata: map[string]interface{}{
			metaKeySourcePath:  absPath,
			metaKeySourceMtime: strconv.FormatInt(info.ModTime().UnixNano(), 10),
			metaKeySourceSize:  strconv.FormatInt(info.Size(), 10),
		},
	}
	if _, err := idx.IndexDocument(ctx, input); err != nil {
		return false, err
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer file indexed", zap.String("path", absPath), zap.String("doc_id", docID))
	}
	return false, nil
}

// unchanged reports whether the file is already stored with the same mtime and size.
func (idx *Indexer) unchanged(ctx context.Context, absPath, docID string, info os.FileInfo) bool {
	doc, err := idx.storage.GetDocument(ctx, docID)
	if err != nil || doc.Metadata == nil {
		return false
	}
	if doc.Metadata[metaKeySourcePath] != absPath {
		return false
	}
	// Stored as strings: UnixNano exceeds float64 precision after a JSON round trip.
	return metadataInt64(doc.Metadata, metaKeySourceMtime) == info.ModTime().UnixNano() &&
		metadataInt64(doc.Metadata, metaKeySourceSize) == info.Size()
}

func metadataInt64(m map[string]interface{}, key string) int64 {
	switch n := m[key].(type) {
	case string:
		x, _ := strconv.ParseInt(n, 10, 64)
		return x
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// DirectoryStats summarizes an IndexDirectory run.
type DirectoryStats struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
}

// IndexDirectory walks dir recursively and indexes each regular file whose extension
// is in allowedExts (all files when allowedExts is empty). It stops at the first error.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, allowedExts []string) (DirectoryStats, error) {
	var stats DirectoryStats
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return stats, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return stats, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return stats, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if len(allowedExts) > 0 && !extensionAllowed(filepath.Ext(path), allowedExts) {
			return nil
		}
		// follow symlinks; only regular targets are indexed
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		skipped, err := idx.IndexFile(ctx, path, allowedExts)
		if err != nil {
			return err
		}
		if skipped {
			stats.Skipped++
		} else {
			stats.Indexed++
		}
		return nil
	})
	return stats, err
}

func (idx *Indexer) extractContent(path string) (*extract.Content, error) {
	if idx.extractor != nil {
		return idx.extractor.Extract(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &extract.Content{Text: string(content)}, nil
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

const reindexBatchSize = 100

// ReindexStats reports what Reindex changed.
type ReindexStats struct {
	Indexed int `json:"indexed"`
	// Removed counts index entries with no stored document behind them.
	Removed int `json:"removed"`
}

// Reindex writes every stored document to the term index again, for example after
// switching index backends or deleting the index directory, then removes index entries
// whose document is no longer stored. Afterwards the index holds exactly the stored documents.
func (idx *Indexer) Reindex(ctx context.Context) (ReindexStats, error) {
	var stats ReindexStats
	stored := make(map[string]struct{})
	for offset := 0; ; offset += reindexBatchSize {
		docs, err := idx.storage.ListDocuments(ctx, offset, reindexBatchSize)
		if err != nil {
			return stats, fmt.Errorf("list documents: %w", err)
		}
		for _, doc := range docs {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			if err := idx.termIndex.Index(ctx, doc); err != nil {
				return stats, fmt.Errorf("index %s: %w", doc.ID, err)
			}
			stored[doc.ID] = struct{}{}
			stats.Indexed++
		}
		if len(docs) < reindexBatchSize {
			break
		}
	}

	indexed, err := idx.termIndex.DocumentIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("list indexed documents: %w", err)
	}
	for _, id := range indexed {
		if _, ok := stored[id]; ok {
			continue
		}
		// stored since the listing pass started
		if _, err := idx.storage.GetDocument(ctx, id); err == nil {
			continue
		} else if !errors.Is(err, storage.ErrNotFound) {
			return stats, fmt.Errorf("check %s: %w", id, err)
		}
		if err := idx.termIndex.Delete(ctx, id); err != nil {
			return stats, fmt.Errorf("remove stale %s: %w", id, err)
		}
		stats.Removed++
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer reindex complete",
			zap.Int("documents", stats.Indexed),
			zap.Int("removed", stats.Removed),
		)
	}
	return stats, nil
}

// DeleteDocument removes a document from the term index and storage.
func (idx *Indexer) DeleteDocument(ctx context.Context, id string) error {
	if err := idx.termIndex.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete from term index: %w", err)
	}
	if err := idx.storage.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer document deleted", zap.String("id", id))
	}
	return nil
}

// DeleteFile removes the document indexed from path.
func (idx *Indexer) DeleteFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	return idx.DeleteDocument(ctx, fileid.FileDocID(absPath))
}
