// Package cli provides output helpers for the wikisearch command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/wikisearch/internal/models"
	"github.com/hyperjump/wikisearch/internal/search"
	"github.com/hyperjump/wikisearch/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputCompact prints one "id score" line per result, like the classic WikiSearch printout.
	OutputCompact SearchOutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value. Empty means text.
func ParseOutputFormat(s string) (SearchOutputFormat, error) {
	switch f := SearchOutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return OutputText, nil
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

// WriteSearchResults writes search results to w in the given format. Results are
// written in the order given, which is ascending score.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputCompact:
		for _, result := range response.Results {
			if _, err := fmt.Fprintf(w, "%-70s %d\n", result.ID, result.Score); err != nil {
				return err
			}
		}
		return nil
	default:
		return writeSearchResultsText(w, response)
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) error {
	query := ""
	if response.Query != nil {
		query = DescribeQuery(response.Query)
	}
	if _, err := fmt.Fprintf(w, "\n%s: %d results in %dms\n\n", query, response.Total, response.QueryTime); err != nil {
		return err
	}
	for _, result := range response.Results {
		title := result.Title
		if title == "" {
			title = result.ID
		}
		fmt.Fprintf(w, "%3d. [%d] %s\n", result.Rank, result.Score, utils.Truncate(title, 80))
		if result.Source != "" && result.Source != title {
			fmt.Fprintf(w, "       %s\n", result.Source)
		} else if result.ID != title {
			fmt.Fprintf(w, "       %s\n", result.ID)
		}
	}
	for _, term := range suggestedTerms(response) {
		fmt.Fprintf(w, "No documents contain %q; did you mean: %s?\n", term, strings.Join(response.Suggestions[term], ", "))
	}
	_, err := fmt.Fprintln(w)
	return err
}

// suggestedTerms returns the terms with suggestions in query order.
func suggestedTerms(response *models.SearchResponse) []string {
	if len(response.Suggestions) == 0 {
		return nil
	}
	var terms []string
	if response.Query != nil {
		for _, term := range response.Query.Terms {
			if _, ok := response.Suggestions[term]; ok {
				terms = append(terms, term)
			}
		}
		return terms
	}
	for term := range response.Suggestions {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// WriteTermResults writes one term's ranked entries in the given format. Suggestions
// are only written when no document contains the term.
func WriteTermResults(w io.Writer, term string, entries []search.Entry, suggestions []string, format SearchOutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		out := map[string]interface{}{"term": term, "results": entries, "total": len(entries)}
		if len(entries) == 0 && len(suggestions) > 0 {
			out["suggestions"] = suggestions
		}
		return enc.Encode(out)
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%-70s %d\n", e.ID, e.Score); err != nil {
			return err
		}
	}
	if len(entries) == 0 && len(suggestions) > 0 {
		_, err := fmt.Fprintf(w, "no documents contain %q; did you mean: %s?\n", term, strings.Join(suggestions, ", "))
		return err
	}
	return nil
}

// DescribeQuery renders a query as text, e.g. "java AND programming NOT coffee".
func DescribeQuery(q *models.SearchQuery) string {
	op := " AND "
	if q.Mode == models.ModeOr {
		op = " OR "
	}
	s := strings.Join(q.Terms, op)
	for _, ex := range q.Exclude {
		s += " NOT " + ex
	}
	return s
}
