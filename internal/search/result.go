// Package search provides the boolean result algebra and the engine that feeds it from a term index.
package search

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidScore is returned when a score map contains a negative value.
var ErrInvalidScore = errors.New("invalid score")

// CombineFunc merges the relevance two results assign to the same document.
type CombineFunc func(a, b int) int

// Additive sums relevance: a document matching more terms scores higher.
func Additive(a, b int) int {
	return a + b
}

// Entry is one document in a ranked result.
type Entry struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
}

// QueryResult maps document IDs to relevance scores. It is never mutated after
// construction, so values can be shared freely between goroutines and reused as
// operands. The zero value is an empty result.
type QueryResult struct {
	scores  map[string]int
	combine CombineFunc
}

// Option configures a QueryResult built by FromMap.
type Option func(*QueryResult)

// WithCombine sets the scoring policy used by Union and Intersect. A nil fn means Additive.
func WithCombine(fn CombineFunc) Option {
	return func(r *QueryResult) { r.combine = fn }
}

// FromMap builds a QueryResult from a document -> score map, typically one term's
// lookup from the index. The map is copied. Zero scores are dropped since absence
// already means zero; negative scores are rejected with ErrInvalidScore.
func FromMap(m map[string]int, opts ...Option) (QueryResult, error) {
	r := QueryResult{scores: make(map[string]int, len(m))}
	for _, opt := range opts {
		opt(&r)
	}
	for id, score := range m {
		if score < 0 {
			return QueryResult{}, fmt.Errorf("%w: %q has score %d", ErrInvalidScore, id, score)
		}
		if score == 0 {
			continue
		}
		r.scores[id] = score
	}
	return r, nil
}

func (r QueryResult) derive(size int) QueryResult {
	return QueryResult{scores: make(map[string]int, size), combine: r.combine}
}

func (r QueryResult) policy() CombineFunc {
	if r.combine == nil {
		return Additive
	}
	return r.combine
}

// Relevance returns the score of id, or 0 when id is not in the result.
func (r QueryResult) Relevance(id string) int {
	return r.scores[id]
}

// Contains reports whether id is in the result.
func (r QueryResult) Contains(id string) bool {
	_, ok := r.scores[id]
	return ok
}

// Len returns the number of documents in the result.
func (r QueryResult) Len() int {
	return len(r.scores)
}

// Union returns every document in r or other (OR). Documents in both get the
// combined score.
func (r QueryResult) Union(other QueryResult) QueryResult {
	out := r.derive(len(r.scores) + len(other.scores))
	combine := r.policy()
	for id := range r.scores {
		out.store(id, combine(r.Relevance(id), other.Relevance(id)))
	}
	for id := range other.scores {
		if r.Contains(id) {
			continue
		}
		out.store(id, combine(r.Relevance(id), other.Relevance(id)))
	}
	return out
}

// Intersect returns the documents present in both r and other (AND), with the
// combined score. Documents in only one operand are dropped.
func (r QueryResult) Intersect(other QueryResult) QueryResult {
	small, large := r, other
	if len(other.scores) < len(r.scores) {
		small, large = other, r
	}
	out := r.derive(len(small.scores))
	combine := r.policy()
	for id := range small.scores {
		if !large.Contains(id) {
			continue
		}
		out.store(id, combine(r.Relevance(id), other.Relevance(id)))
	}
	return out
}

// Difference returns the documents of r that are absent from other (NOT). The
// score is r's own score: other only filters and never adjusts relevance.
func (r QueryResult) Difference(other QueryResult) QueryResult {
	out := r.derive(len(r.scores))
	for id, score := range r.scores {
		if other.Contains(id) {
			continue
		}
		out.scores[id] = score
	}
	return out
}

// store keeps the no-zero-entries invariant when a policy yields 0.
func (r QueryResult) store(id string, score int) {
	if score == 0 {
		return
	}
	r.scores[id] = score
}

// Ranked returns all entries by ascending score, ties ordered by ascending ID.
// Each call returns a new slice with the same order.
func (r QueryResult) Ranked() []Entry {
	entries := make([]Entry, 0, len(r.scores))
	for id, score := range r.scores {
		entries = append(entries, Entry{ID: id, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score < entries[j].Score
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

// IDs returns the document IDs in ascending order.
func (r QueryResult) IDs() []string {
	ids := make([]string, 0, len(r.scores))
	for id := range r.scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Scores returns a copy of the document -> score map.
func (r QueryResult) Scores() map[string]int {
	out := make(map[string]int, len(r.scores))
	for id, score := range r.scores {
		out[id] = score
	}
	return out
}

// Equal reports whether r and other hold the same documents with the same scores.
func (r QueryResult) Equal(other QueryResult) bool {
	if len(r.scores) != len(other.scores) {
		return false
	}
	for id, score := range r.scores {
		if s, ok := other.scores[id]; !ok || s != score {
			return false
		}
	}
	return true
}

// UnionAll folds results left to right with Union. No results yields an empty result.
func UnionAll(results ...QueryResult) QueryResult {
	if len(results) == 0 {
		return QueryResult{}
	}
	acc := results[0]
	for _, r := range results[1:] {
		acc = acc.Union(r)
	}
	return acc
}

// IntersectAll folds results left to right with Intersect. No results yields an empty result.
func IntersectAll(results ...QueryResult) QueryResult {
	if len(results) == 0 {
		return QueryResult{}
	}
	acc := results[0]
	for _, r := range results[1:] {
		acc = acc.Intersect(r)
	}
	return acc
}
