package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hyperjump/wikisearch/internal/keyword"
	"github.com/hyperjump/wikisearch/internal/models"
	"github.com/hyperjump/wikisearch/internal/storage"
	"go.uber.org/zap"
)

// Index maps a term to the documents containing it and their relevance for that term.
// A term with no matches yields an empty map and a nil error.
type Index interface {
	Lookup(ctx context.Context, term string) (map[string]int, error)
}

// Suggester proposes indexed terms close to a term that matched nothing.
type Suggester interface {
	Suggest(term string) ([]keyword.Suggestion, error)
}

// Engine evaluates boolean term queries against an Index.
type Engine struct {
	index     Index
	storage   storage.Storage // optional; decorates results with title and source
	suggester Suggester       // optional
	logger    *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithSuggester enables "did you mean" suggestions for query terms with no matches.
func WithSuggester(sg Suggester) EngineOption {
	return func(e *Engine) { e.suggester = sg }
}

// NewEngine creates a search engine. store may be nil, in which case results carry only IDs.
func NewEngine(index Index, store storage.Storage, opts ...EngineOption) *Engine {
	e := &Engine{
		index:   index,
		storage: store,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Lookup returns the result for a single term.
func (e *Engine) Lookup(ctx context.Context, term string) (QueryResult, error) {
	scores, err := e.index.Lookup(ctx, term)
	if err != nil {
		return QueryResult{}, fmt.Errorf("lookup %q: %w", term, err)
	}
	r, err := FromMap(scores)
	if err != nil {
		return QueryResult{}, fmt.Errorf("lookup %q: %w", term, err)
	}
	return r, nil
}

// Search validates query, looks up every distinct term concurrently and combines the
// per-term results: Terms are intersected (and) or unioned (or), then every document
// matching any Exclude term is removed. Results are in ascending score order.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := query.Validate(); err != nil {
		return nil, err
	}

	results, err := e.lookupAll(ctx, append(append([]string{}, query.Terms...), query.Exclude...))
	if err != nil {
		return nil, err
	}

	matched := collect(results, query.Terms)
	var combined QueryResult
	if query.Mode == models.ModeOr {
		combined = UnionAll(matched...)
	} else {
		combined = IntersectAll(matched...)
	}
	if len(query.Exclude) > 0 {
		combined = combined.Difference(UnionAll(collect(results, query.Exclude)...))
	}

	ranked := combined.Ranked()
	response := &models.SearchResponse{
		Query:   query,
		Results: make([]*models.SearchResult, 0, len(ranked)),
		Total:   len(ranked),
	}
	for _, term := range query.Terms {
		if results[term].Len() > 0 {
			continue
		}
		if alts := e.Suggest(term); len(alts) > 0 {
			if response.Suggestions == nil {
				response.Suggestions = make(map[string][]string)
			}
			response.Suggestions[term] = alts
		}
	}
	for i, entry := range ranked {
		response.Results = append(response.Results, e.decorate(ctx, i+1, entry))
	}
	response.QueryTime = time.Since(startTime).Milliseconds()

	e.logger.Debug("search completed",
		zap.Strings("terms", query.Terms),
		zap.String("mode", query.Mode),
		zap.Strings("exclude", query.Exclude),
		zap.Int("total", response.Total),
		zap.Int64("query_time_ms", response.QueryTime),
	)
	return response, nil
}

// Suggest returns indexed terms close to term, best first. It returns nil without a
// suggester; a failing suggester is logged, not returned, so it never fails a search.
func (e *Engine) Suggest(term string) []string {
	if e.suggester == nil {
		return nil
	}
	suggestions, err := e.suggester.Suggest(term)
	if err != nil {
		e.logger.Warn("spell check failed", zap.String("term", term), zap.Error(err))
		return nil
	}
	out := make([]string, 0, len(suggestions))
	for _, sg := range suggestions {
		out = append(out, sg.Term)
	}
	return out
}

// lookupAll runs one Lookup per distinct term. The first failure cancels the rest.
func (e *Engine) lookupAll(ctx context.Context, terms []string) (map[string]QueryResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]QueryResult, len(terms))
		errChan = make(chan error, len(terms))
		wg      sync.WaitGroup
	)
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		wg.Add(1)
		go func(term string) {
			defer wg.Done()
			r, err := e.Lookup(ctx, term)
			if err != nil {
				errChan <- err
				cancel()
				return
			}
			mu.Lock()
			results[term] = r
			mu.Unlock()
		}(term)
	}

	wg.Wait()
	close(errChan)
	// prefer the error that triggered cancellation over the cancellations it caused
	var firstErr error
	for err := range errChan {
		if firstErr == nil || errors.Is(firstErr, context.Canceled) {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

func collect(results map[string]QueryResult, terms []string) []QueryResult {
	out := make([]QueryResult, 0, len(terms))
	for _, term := range terms {
		out = append(out, results[term])
	}
	return out
}

func (e *Engine) decorate(ctx context.Context, rank int, entry Entry) *models.SearchResult {
	result := &models.SearchResult{Rank: rank, ID: entry.ID, Score: entry.Score}
	if e.storage == nil {
		return result
	}
	doc, err := e.storage.GetDocument(ctx, entry.ID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			e.logger.Warn("failed to load document for result", zap.String("id", entry.ID), zap.Error(err))
		}
		return result
	}
	result.Title = doc.Title
	result.Source = doc.Source
	return result
}
