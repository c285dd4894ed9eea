package keyword

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/wikisearch/internal/models"
	"github.com/hyperjump/wikisearch/pkg/utils"
)

// SQLiteIndex implements TermIndex as a term -> document -> count table.
type SQLiteIndex struct {
	db *sql.DB
}

// NewSQLiteIndex opens or creates the term table in the SQLite database at dbPath.
func NewSQLiteIndex(dbPath string) (*SQLiteIndex, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open term index: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS term_counts (
		term TEXT NOT NULL,
		doc_id TEXT NOT NULL,
		count INTEGER NOT NULL,
		PRIMARY KEY (term, doc_id)
	);

	CREATE INDEX IF NOT EXISTS idx_term_counts_doc_id ON term_counts(doc_id);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteIndex{db: db}, nil
}

// Index replaces the document's term counts in one transaction.
func (s *SQLiteIndex) Index(ctx context.Context, doc *models.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM term_counts WHERE doc_id = ?`, doc.ID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO term_counts (term, doc_id, count) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for term, count := range utils.TermCounts(doc.Content) {
		if _, err := stmt.ExecContext(ctx, term, doc.ID, count); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Lookup returns the document -> count map for term.
func (s *SQLiteIndex) Lookup(ctx context.Context, term string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc_id, count FROM term_counts WHERE term = ?`, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		counts[id] = count
	}
	return counts, rows.Err()
}

// Delete removes all term counts for a document.
func (s *SQLiteIndex) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM term_counts WHERE doc_id = ?`, id)
	return err
}

// GetAllTerms returns the distinct indexed terms.
func (s *SQLiteIndex) GetAllTerms() ([]string, error) {
	return s.strings(context.Background(), `SELECT DISTINCT term FROM term_counts`)
}

// GetTermFrequency returns the number of documents containing term.
func (s *SQLiteIndex) GetTermFrequency(term string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM term_counts WHERE term = ?`, term).Scan(&n)
	return n, err
}

// DocumentIDs returns the IDs of all documents with at least one term.
func (s *SQLiteIndex) DocumentIDs(ctx context.Context) ([]string, error) {
	return s.strings(ctx, `SELECT DISTINCT doc_id FROM term_counts`)
}

func (s *SQLiteIndex) strings(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// DocCount returns the number of documents with at least one term.
func (s *SQLiteIndex) DocCount() (uint64, error) {
	var n uint64
	err := s.db.QueryRow(`SELECT COUNT(DISTINCT doc_id) FROM term_counts`).Scan(&n)
	return n, err
}

// Close closes the database connection.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}
