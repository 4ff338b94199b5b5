package models

// SearchResult represents a single similarity search hit.
type SearchResult struct {
	ID       string                 `json:"id"`
	Score    float32                `json:"score"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
}

// SearchResponse is the response for a search request. Results are ordered by
// descending similarity score.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []*SearchResult `json:"results"`
}
