package search

import (
	"errors"
	"reflect"
	"testing"
)

func mustResult(t *testing.T, m map[string]int) QueryResult {
	t.Helper()
	r, err := FromMap(m)
	if err != nil {
		t.Fatalf("FromMap(%v): %v", m, err)
	}
	return r
}

func TestFromMap(t *testing.T) {
	t.Run("copies input", func(t *testing.T) {
		m := map[string]int{"a": 1}
		r := mustResult(t, m)
		m["a"] = 5
		m["b"] = 2
		if r.Relevance("a") != 1 || r.Contains("b") {
			t.Errorf("result changed with caller map: %v", r.Scores())
		}
	})
	t.Run("drops zero scores", func(t *testing.T) {
		r := mustResult(t, map[string]int{"a": 0, "b": 3})
		if r.Contains("a") {
			t.Error("zero score should not be stored")
		}
		if r.Len() != 1 {
			t.Errorf("Len() = %d, want 1", r.Len())
		}
	})
	t.Run("rejects negative scores", func(t *testing.T) {
		_, err := FromMap(map[string]int{"a": -1})
		if !errors.Is(err, ErrInvalidScore) {
			t.Errorf("err = %v, want ErrInvalidScore", err)
		}
	})
	t.Run("nil map is empty", func(t *testing.T) {
		r := mustResult(t, nil)
		if r.Len() != 0 {
			t.Errorf("Len() = %d, want 0", r.Len())
		}
	})
}

func TestRelevance(t *testing.T) {
	r := mustResult(t, map[string]int{"a": 4})
	if got := r.Relevance("a"); got != 4 {
		t.Errorf("Relevance(a) = %d, want 4", got)
	}
	if got := r.Relevance("missing"); got != 0 {
		t.Errorf("Relevance(missing) = %d, want 0", got)
	}
	var zero QueryResult
	if got := zero.Relevance("a"); got != 0 {
		t.Errorf("zero value Relevance = %d, want 0", got)
	}
}

// java and programming are the two-term example the engine demo runs.
func termResults(t *testing.T) (java, programming QueryResult) {
	java = mustResult(t, map[string]int{"urlX": 2, "urlY": 1})
	programming = mustResult(t, map[string]int{"urlY": 3, "urlZ": 1})
	return java, programming
}

func TestScenario(t *testing.T) {
	java, programming := termResults(t)

	tests := []struct {
		name string
		got  QueryResult
		want map[string]int
	}{
		{"and", java.Intersect(programming), map[string]int{"urlY": 4}},
		{"or", java.Union(programming), map[string]int{"urlX": 2, "urlY": 4, "urlZ": 1}},
		{"minus", java.Difference(programming), map[string]int{"urlX": 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got.Scores(), tt.want) {
				t.Errorf("got %v, want %v", tt.got.Scores(), tt.want)
			}
		})
	}
}

func TestOperandsUnchanged(t *testing.T) {
	java, programming := termResults(t)
	_ = java.Union(programming)
	_ = java.Intersect(programming)
	_ = java.Difference(programming)
	if !reflect.DeepEqual(java.Scores(), map[string]int{"urlX": 2, "urlY": 1}) {
		t.Errorf("java mutated: %v", java.Scores())
	}
	if !reflect.DeepEqual(programming.Scores(), map[string]int{"urlY": 3, "urlZ": 1}) {
		t.Errorf("programming mutated: %v", programming.Scores())
	}
}

var algebraCases = []map[string]int{
	{},
	{"a": 1},
	{"a": 2, "b": 5},
	{"b": 1, "c": 7, "d": 3},
	{"a": 9, "d": 1, "e": 2},
}

func TestUnionCommutative(t *testing.T) {
	for _, ma := range algebraCases {
		for _, mb := range algebraCases {
			a, b := mustResult(t, ma), mustResult(t, mb)
			if !a.Union(b).Equal(b.Union(a)) {
				t.Errorf("%v OR %v is not commutative", ma, mb)
			}
		}
	}
}

func TestUnionAssociative(t *testing.T) {
	for _, ma := range algebraCases {
		for _, mb := range algebraCases {
			for _, mc := range algebraCases {
				a, b, c := mustResult(t, ma), mustResult(t, mb), mustResult(t, mc)
				left := a.Union(b).Union(c)
				right := a.Union(b.Union(c))
				if !left.Equal(right) {
					t.Errorf("(%v OR %v) OR %v = %v, but %v OR (%v OR %v) = %v",
						ma, mb, mc, left.Scores(), ma, mb, mc, right.Scores())
				}
			}
		}
	}
}

func TestIntersectMembership(t *testing.T) {
	for _, ma := range algebraCases {
		for _, mb := range algebraCases {
			a, b := mustResult(t, ma), mustResult(t, mb)
			got := a.Intersect(b)
			for id, score := range got.Scores() {
				if !a.Contains(id) || !b.Contains(id) {
					t.Errorf("%q in %v AND %v but not in both operands", id, ma, mb)
				}
				if want := a.Relevance(id) + b.Relevance(id); score != want {
					t.Errorf("%q score = %d, want %d", id, score, want)
				}
			}
			for id := range ma {
				if b.Contains(id) && !got.Contains(id) {
					t.Errorf("%q in both operands but missing from intersection", id)
				}
			}
		}
	}
}

func TestDifferenceMembership(t *testing.T) {
	for _, ma := range algebraCases {
		for _, mb := range algebraCases {
			a, b := mustResult(t, ma), mustResult(t, mb)
			got := a.Difference(b)
			for id, score := range got.Scores() {
				if !a.Contains(id) || b.Contains(id) {
					t.Errorf("%q in %v NOT %v violates membership", id, ma, mb)
				}
				if score != a.Relevance(id) {
					t.Errorf("%q score = %d, want %d", id, score, a.Relevance(id))
				}
			}
		}
	}
}

// Difference filters on presence only: the right operand's scores never reach the output.
func TestDifferenceIgnoresOtherScores(t *testing.T) {
	a := mustResult(t, map[string]int{"x": 5, "y": 2})
	low := mustResult(t, map[string]int{"y": 1})
	high := mustResult(t, map[string]int{"y": 100})
	if !a.Difference(low).Equal(a.Difference(high)) {
		t.Error("difference depends on the right operand's scores")
	}
	if got := a.Difference(low).Relevance("x"); got != 5 {
		t.Errorf("Relevance(x) = %d, want 5 (no score subtraction)", got)
	}
}

func TestUnionSelfDoubles(t *testing.T) {
	for _, m := range algebraCases {
		a := mustResult(t, m)
		got := a.Union(a)
		if got.Len() != a.Len() {
			t.Errorf("key set changed: %v -> %v", m, got.Scores())
		}
		for id, score := range m {
			if got.Relevance(id) != 2*score {
				t.Errorf("%q = %d, want %d", id, got.Relevance(id), 2*score)
			}
		}
	}
}

func TestRanked(t *testing.T) {
	r := mustResult(t, map[string]int{"a": 3, "b": 1, "c": 2})
	want := []Entry{{"b", 1}, {"c", 2}, {"a", 3}}
	if got := r.Ranked(); !reflect.DeepEqual(got, want) {
		t.Errorf("Ranked() = %v, want %v", got, want)
	}
}

func TestRankedTiesAndIdempotence(t *testing.T) {
	r := mustResult(t, map[string]int{"d": 2, "b": 2, "a": 1, "c": 2})
	first := r.Ranked()
	want := []Entry{{"a", 1}, {"b", 2}, {"c", 2}, {"d", 2}}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("Ranked() = %v, want %v", first, want)
	}
	for i := 0; i < 10; i++ {
		if got := r.Ranked(); !reflect.DeepEqual(got, first) {
			t.Fatalf("call %d: Ranked() = %v, want %v", i, got, first)
		}
	}
	first[0].Score = 99
	if r.Relevance("a") != 1 {
		t.Error("mutating a ranked slice changed the result")
	}
}

func TestRankedEmpty(t *testing.T) {
	var r QueryResult
	if got := r.Ranked(); len(got) != 0 {
		t.Errorf("Ranked() on empty = %v", got)
	}
}

func TestWithCombine(t *testing.T) {
	maxScore := func(a, b int) int {
		if a > b {
			return a
		}
		return b
	}
	a, err := FromMap(map[string]int{"x": 2, "y": 7}, WithCombine(maxScore))
	if err != nil {
		t.Fatal(err)
	}
	b := mustResult(t, map[string]int{"x": 5, "z": 1})

	union := a.Union(b)
	if union.Relevance("x") != 5 || union.Relevance("y") != 7 || union.Relevance("z") != 1 {
		t.Errorf("max union = %v", union.Scores())
	}
	// derived results keep the receiver's policy
	again := union.Union(b)
	if again.Relevance("x") != 5 {
		t.Errorf("policy not carried: x = %d, want 5", again.Relevance("x"))
	}
	if got := a.Intersect(b).Relevance("x"); got != 5 {
		t.Errorf("max intersect x = %d, want 5", got)
	}
}

func TestFolds(t *testing.T) {
	java, programming := termResults(t)
	python := mustResult(t, map[string]int{"urlY": 1, "urlW": 4})

	if got := IntersectAll(java, programming, python); !reflect.DeepEqual(got.Scores(), map[string]int{"urlY": 5}) {
		t.Errorf("IntersectAll = %v", got.Scores())
	}
	want := map[string]int{"urlX": 2, "urlY": 5, "urlZ": 1, "urlW": 4}
	if got := UnionAll(java, programming, python); !reflect.DeepEqual(got.Scores(), want) {
		t.Errorf("UnionAll = %v, want %v", got.Scores(), want)
	}
	if UnionAll().Len() != 0 || IntersectAll().Len() != 0 {
		t.Error("empty folds should be empty")
	}
}

func TestIDs(t *testing.T) {
	r := mustResult(t, map[string]int{"c": 1, "a": 1, "b": 9})
	if got := r.IDs(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("IDs() = %v", got)
	}
}
