package models

import (
	"errors"
	"fmt"

	"github.com/hyperjump/wikisearch/pkg/utils"
)

// Search modes for combining the query terms.
const (
	ModeAnd = "and"
	ModeOr  = "or"
)

var (
	// ErrEmptyQuery is returned when a query has no usable terms.
	ErrEmptyQuery = errors.New("query must contain at least one term")
	// ErrInvalidMode is returned for a mode other than "and" or "or".
	ErrInvalidMode = errors.New("invalid search mode")
	// ErrCompoundTerm is returned for a term the indexer would split into several words, such as "e-mail".
	ErrCompoundTerm = errors.New("term spans more than one word")
)

// SearchQuery is a boolean term query. Terms are combined with Mode (AND by default)
// and any document matching one of Exclude is removed.
type SearchQuery struct {
	Terms   []string `json:"terms"`
	Mode    string   `json:"mode,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

// NormalizeTerm reduces term to the single word the indexer would store for it, so
// "Java," and "java" look up the same entry. It returns "" for a term with no letters
// or digits and ErrCompoundTerm when the indexer would split it ("don't" or "e-mail").
func NormalizeTerm(term string) (string, error) {
	tokens := utils.Tokenize(term)
	switch len(tokens) {
	case 0:
		return "", nil
	case 1:
		return tokens[0], nil
	default:
		return "", fmt.Errorf("%w: %q is indexed as %q", ErrCompoundTerm, term, tokens)
	}
}

// Validate normalizes terms, drops empty and duplicate ones and defaults Mode to "and".
// Returns ErrEmptyQuery when no term remains, ErrCompoundTerm for a term that is not a
// single word and ErrInvalidMode for an unknown mode.
func (q *SearchQuery) Validate() error {
	var err error
	if q.Terms, err = normalizeTerms(q.Terms); err != nil {
		return err
	}
	if q.Exclude, err = normalizeTerms(q.Exclude); err != nil {
		return err
	}
	if len(q.Terms) == 0 {
		return ErrEmptyQuery
	}
	switch q.Mode {
	case "":
		q.Mode = ModeAnd
	case ModeAnd, ModeOr:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, q.Mode)
	}
	return nil
}

func normalizeTerms(terms []string) ([]string, error) {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, raw := range terms {
		t, err := NormalizeTerm(raw)
		if err != nil {
			return nil, err
		}
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}
