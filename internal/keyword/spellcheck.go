package keyword

import (
	"sort"
	"sync"
	"time"
	"unicode/utf8"
)

// Suggestion is an indexed term close to a term that matched nothing.
type Suggestion struct {
	Term      string  `json:"term"`
	Distance  int     `json:"distance"`
	Frequency int     `json:"frequency"` // documents containing Term
	Score     float64 `json:"score"`
}

// SpellChecker suggests indexed terms for misspelled query terms.
// The vocabulary is cached and reloaded from the dictionary once it is older than the refresh interval.
type SpellChecker struct {
	dictionary      TermDictionary
	maxDistance     int
	minFreq         int
	maxSuggestions  int
	refreshInterval time.Duration
	distance        func(a, b string) int

	mu        sync.RWMutex
	terms     []string
	termSet   map[string]struct{}
	refreshed time.Time
}

// SpellCheckerOption configures a SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency ignores terms found in fewer than f documents.
func WithMinFrequency(f int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxSuggestions caps the suggestions returned per term.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// WithRefreshInterval sets how long the cached vocabulary is trusted. Zero reloads on every call.
func WithRefreshInterval(d time.Duration) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d >= 0 {
			s.refreshInterval = d
		}
	}
}

// WithTranspositions toggles counting adjacent swaps as one edit.
func WithTranspositions(enabled bool) SpellCheckerOption {
	return func(s *SpellChecker) {
		if enabled {
			s.distance = TranspositionDistance
		} else {
			s.distance = EditDistance
		}
	}
}

// NewSpellChecker returns a SpellChecker over dict.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dictionary:      dict,
		maxDistance:     2,
		minFreq:         1,
		maxSuggestions:  5,
		refreshInterval: 30 * time.Second,
		distance:        TranspositionDistance,
		termSet:         make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RefreshCache reloads the vocabulary from the dictionary.
func (s *SpellChecker) RefreshCache() error {
	terms, err := s.dictionary.GetAllTerms()
	if err != nil {
		return err
	}
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.terms = terms
	s.termSet = set
	s.refreshed = time.Now()
	return nil
}

func (s *SpellChecker) ensureFresh() error {
	s.mu.RLock()
	stale := s.refreshed.IsZero() || time.Since(s.refreshed) >= s.refreshInterval
	s.mu.RUnlock()
	if !stale {
		return nil
	}
	return s.RefreshCache()
}

// IsMisspelled reports whether term is absent from the indexed vocabulary.
func (s *SpellChecker) IsMisspelled(term string) (bool, error) {
	if err := s.ensureFresh(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.termSet[term]
	return !ok, nil
}

// Suggest returns indexed terms within the maximum edit distance of term, best first.
// Score is frequency / (distance + 1); ties go to the lexically smaller term.
// term must already be normalized.
func (s *SpellChecker) Suggest(term string) ([]Suggestion, error) {
	if err := s.ensureFresh(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	terms := s.terms
	s.mu.RUnlock()

	termLen := utf8.RuneCountInString(term)
	var out []Suggestion
	for _, candidate := range terms {
		if candidate == term {
			continue
		}
		if diff := utf8.RuneCountInString(candidate) - termLen; diff > s.maxDistance || -diff > s.maxDistance {
			continue
		}
		distance := s.distance(term, candidate)
		if distance > s.maxDistance {
			continue
		}
		freq, err := s.dictionary.GetTermFrequency(candidate)
		if err != nil {
			return nil, err
		}
		if freq < s.minFreq {
			continue
		}
		out = append(out, Suggestion{
			Term:      candidate,
			Distance:  distance,
			Frequency: freq,
			Score:     float64(freq) / float64(distance+1),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > s.maxSuggestions {
		out = out[:s.maxSuggestions]
	}
	return out, nil
}
