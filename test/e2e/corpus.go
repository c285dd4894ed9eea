// Package e2e provides end-to-end tests: a generated wiki corpus indexed through the
// real storage and term index backends, queried through the search engine.
package e2e

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hyperjump/wikisearch/internal/models"
	"github.com/hyperjump/wikisearch/pkg/utils"
)

var vocabulary = []string{
	"java", "python", "coffee", "island", "compiler",
	"runtime", "syntax", "volcano", "bean", "library",
}

// prose is appended to pages so the index sees what real wiki text has: mixed case,
// stop words, apostrophes, hyphens and words with digits.
var prose = []string{
	"The Java runtime is not the coffee.",
	"Don't e-mail THE compiler; it's Java8 syntax.",
	"Python3 and Java8 aren't the same runtime, are they?",
	"An island is not a volcano. The e-mail said so.",
	"It's the BEAN library's job, not Python's.",
}

// Page is one generated wiki page.
type Page struct {
	ID      string
	Title   string
	Content string
}

// QueryCase is a query whose expected result is computed by brute force over the corpus.
type QueryCase struct {
	Description string
	Query       models.SearchQuery
}

// Corpus holds the generated pages and the queries run against them.
type Corpus struct {
	Pages   []Page
	Queries []QueryCase
}

// BuildCorpus returns n pages. Page i contains each vocabulary word between 0 and 3
// times, so scores differ across pages and some words are absent from some pages,
// followed by one or two sentences of prose.
func BuildCorpus(n int) *Corpus {
	pages := make([]Page, 0, n)
	for i := 0; i < n; i++ {
		var words []string
		for w, word := range vocabulary {
			for k := 0; k < (i*(w+3)+w)%4; k++ {
				words = append(words, word)
			}
		}
		words = append(words, fmt.Sprintf("marker%03d", i), prose[i%len(prose)])
		if i%3 == 0 {
			words = append(words, prose[(i+2)%len(prose)])
		}
		pages = append(pages, Page{
			ID:      fmt.Sprintf("https://wiki.example.org/wiki/Page_%03d", i),
			Title:   fmt.Sprintf("Page %d", i),
			Content: strings.Join(words, " "),
		})
	}
	return &Corpus{Pages: pages, Queries: buildQueries()}
}

func buildQueries() []QueryCase {
	q := func(desc, mode string, terms []string, exclude ...string) QueryCase {
		return QueryCase{Description: desc, Query: models.SearchQuery{Terms: terms, Mode: mode, Exclude: exclude}}
	}
	return []QueryCase{
		q("single term", models.ModeAnd, []string{"java"}),
		q("two terms and", models.ModeAnd, []string{"java", "compiler"}),
		q("three terms and", models.ModeAnd, []string{"python", "runtime", "syntax"}),
		q("two terms or", models.ModeOr, []string{"coffee", "volcano"}),
		q("and minus", models.ModeAnd, []string{"java"}, "coffee"),
		q("or minus two", models.ModeOr, []string{"java", "python"}, "coffee", "they"),
		q("unique marker", models.ModeAnd, []string{"marker007"}),
		q("unknown term", models.ModeAnd, []string{"haskell"}),
		q("and with unknown term", models.ModeAnd, []string{"java", "haskell"}),
		q("or with unknown term", models.ModeOr, []string{"library", "haskell"}),
		q("stop words", models.ModeAnd, []string{"the", "is"}),
		q("stop word excluded", models.ModeAnd, []string{"java"}, "not"),
		q("mixed case term", models.ModeAnd, []string{"JAVA8"}),
		q("apostrophe pieces", models.ModeAnd, []string{"don", "t"}),
		q("possessive s", models.ModeOr, []string{"s", "they"}, "Coffee"),
		q("hyphen pieces", models.ModeOr, []string{"e", "mail"}, "compiler"),
		q("letters and digits", models.ModeAnd, []string{"python3", "runtime"}),
	}
}

// ToDocumentInputs converts the pages for Indexer.IndexDocument.
func (c *Corpus) ToDocumentInputs() []*models.DocumentInput {
	inputs := make([]*models.DocumentInput, 0, len(c.Pages))
	for _, p := range c.Pages {
		inputs = append(inputs, &models.DocumentInput{ID: p.ID, Title: p.Title, Source: p.ID, Content: p.Content})
	}
	return inputs
}

// Expected evaluates q over the pages directly: term counts from the content, AND/OR
// over the terms, excluded terms removed, scores summed. Terms are normalized the way
// the engine normalizes them. ids maps page IDs to the document IDs the index holds;
// nil keeps page IDs. Results are ordered by ascending score, ties by ascending ID.
func (c *Corpus) Expected(q models.SearchQuery, ids map[string]string) []*models.SearchResult {
	if err := q.Validate(); err != nil {
		return nil
	}
	var out []*models.SearchResult
	for _, p := range c.Pages {
		counts := utils.TermCounts(p.Content)
		score, matched := 0, 0
		for _, term := range q.Terms {
			if n := counts[term]; n > 0 {
				score += n
				matched++
			}
		}
		if matched == 0 || (q.Mode != models.ModeOr && matched < len(q.Terms)) {
			continue
		}
		excluded := false
		for _, term := range q.Exclude {
			if counts[term] > 0 {
				excluded = true
			}
		}
		if excluded {
			continue
		}
		id := p.ID
		if mapped, ok := ids[p.ID]; ok {
			id = mapped
		}
		out = append(out, &models.SearchResult{ID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	for i, r := range out {
		r.Rank = i + 1
	}
	return out
}
