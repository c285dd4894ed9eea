package models

// SearchResult is one ranked document.
type SearchResult struct {
	Rank   int    `json:"rank"`
	ID     string `json:"id"`
	Score  int    `json:"score"`
	Title  string `json:"title,omitempty"`
	Source string `json:"source,omitempty"`
}

// SearchResponse is the response for a search request.
// Results are ordered by ascending score, ties by ascending ID.
type SearchResponse struct {
	Query     *SearchQuery    `json:"query"`
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`

	// Suggestions maps each query term that matched no document to indexed terms close to it.
	Suggestions map[string][]string `json:"suggestions,omitempty"`
}
