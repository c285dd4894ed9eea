package keyword

import (
	"context"
	"errors"
	"testing"
)

type mockTermDictionary struct {
	terms  map[string]int // term -> document frequency
	loads  int
	allErr error
}

func (m *mockTermDictionary) GetAllTerms() ([]string, error) {
	m.loads++
	if m.allErr != nil {
		return nil, m.allErr
	}
	out := make([]string, 0, len(m.terms))
	for term := range m.terms {
		out = append(out, term)
	}
	return out, nil
}

func (m *mockTermDictionary) GetTermFrequency(term string) (int, error) {
	return m.terms[term], nil
}

func TestNewSpellChecker_defaults(t *testing.T) {
	sc := NewSpellChecker(&mockTermDictionary{})
	if sc.maxDistance != 2 || sc.minFreq != 1 || sc.maxSuggestions != 5 {
		t.Errorf("defaults = %d/%d/%d, want 2/1/5", sc.maxDistance, sc.minFreq, sc.maxSuggestions)
	}
}

func TestSpellChecker_Suggest(t *testing.T) {
	dict := &mockTermDictionary{terms: map[string]int{
		"java": 10, "lava": 2, "javascript": 8, "python": 5, "jav": 0,
	}}
	tests := []struct {
		name string
		opts []SpellCheckerOption
		term string
		want []string
	}{
		{"transposition is one edit", nil, "jvaa", []string{"java", "lava"}},
		{"plain levenshtein", []SpellCheckerOption{WithTranspositions(false)}, "jvaa", []string{"java"}},
		{"tight distance", []SpellCheckerOption{WithMaxDistance(1)}, "jvaa", []string{"java"}},
		{"max suggestions", []SpellCheckerOption{WithMaxSuggestions(1)}, "jave", []string{"java"}},
		{"min frequency", []SpellCheckerOption{WithMinFrequency(3)}, "lavas", []string{"java"}},
		{"nothing close", nil, "haskell", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := NewSpellChecker(dict, tt.opts...)
			got, err := sc.Suggest(tt.term)
			if err != nil {
				t.Fatal(err)
			}
			var terms []string
			for _, s := range got {
				terms = append(terms, s.Term)
			}
			if len(terms) != len(tt.want) {
				t.Fatalf("Suggest(%q) = %v, want %v", tt.term, terms, tt.want)
			}
			for i := range terms {
				if terms[i] != tt.want[i] {
					t.Errorf("Suggest(%q)[%d] = %q, want %q", tt.term, i, terms[i], tt.want[i])
				}
			}
		})
	}
}

func TestSpellChecker_SuggestScore(t *testing.T) {
	sc := NewSpellChecker(&mockTermDictionary{terms: map[string]int{"java": 9}})
	got, err := sc.Suggest("jav")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %v", got)
	}
	if got[0].Distance != 1 || got[0].Frequency != 9 || got[0].Score != 4.5 {
		t.Errorf("suggestion = %+v, want distance 1, frequency 9, score 4.5", got[0])
	}
}

func TestSpellChecker_IsMisspelled(t *testing.T) {
	sc := NewSpellChecker(&mockTermDictionary{terms: map[string]int{"java": 1}})
	if bad, _ := sc.IsMisspelled("java"); bad {
		t.Error("java should be known")
	}
	if bad, _ := sc.IsMisspelled("jvaa"); !bad {
		t.Error("jvaa should be misspelled")
	}
}

func TestSpellChecker_RefreshInterval(t *testing.T) {
	dict := &mockTermDictionary{terms: map[string]int{"java": 1}}
	cached := NewSpellChecker(dict)
	_, _ = cached.Suggest("jav")
	_, _ = cached.Suggest("jav")
	if dict.loads != 1 {
		t.Errorf("loads = %d, want 1 with a warm cache", dict.loads)
	}

	dict.loads = 0
	uncached := NewSpellChecker(dict, WithRefreshInterval(0))
	_, _ = uncached.Suggest("jav")
	_, _ = uncached.Suggest("jav")
	if dict.loads != 2 {
		t.Errorf("loads = %d, want 2 with no caching", dict.loads)
	}
}

func TestSpellChecker_DictionaryError(t *testing.T) {
	boom := errors.New("boom")
	sc := NewSpellChecker(&mockTermDictionary{allErr: boom})
	if _, err := sc.Suggest("java"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestSpellChecker_OverBackends(t *testing.T) {
	ctx := context.Background()
	for name, idx := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, doc := range pages {
				if err := idx.Index(ctx, doc); err != nil {
					t.Fatal(err)
				}
			}
			sc := NewSpellChecker(idx, WithMaxDistance(1))
			got, err := sc.Suggest("jvaa")
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 1 || got[0].Term != "java" || got[0].Frequency != 2 {
				t.Errorf("Suggest(jvaa) = %+v, want java in 2 documents", got)
			}
		})
	}
}

var _ TermDictionary = (*mockTermDictionary)(nil)
