package models

import "fmt"

// SearchQuery represents a similarity search request.
type SearchQuery struct {
	Query      string `json:"query"`
	Limit      int    `json:"limit,omitempty"`
	Collection string `json:"collection,omitempty"`
}

// Validate ensures the search query has valid fields and sets defaults.
// Returns an error if the query is empty; otherwise normalizes the limit using
// defaultLimit and maxLimit.
func (q *SearchQuery) Validate(defaultLimit, maxLimit int) error {
	if q.Query == "" {
		return &ValidationError{Field: "query", Reason: "query cannot be empty"}
	}
	if q.Limit < 0 {
		return &ValidationError{Field: "limit", Reason: "limit must be positive"}
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return nil
}

// ValidationError reports a malformed or missing request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
