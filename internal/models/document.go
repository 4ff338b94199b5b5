// Package models defines core data structures for documents, queries, and search results.
package models

// Document represents a stored document with its payload.
type Document struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
}

// DocumentInput is the input for adding a document. ID is optional; a UUID is
// generated when absent. Collection is optional and defaults to the configured
// default collection.
type DocumentInput struct {
	ID         string                 `json:"id,omitempty"`
	Text       string                 `json:"text"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Collection string                 `json:"collection,omitempty"`
}

// Validate ensures the input has the required fields.
func (in *DocumentInput) Validate() error {
	if in.Text == "" {
		return &ValidationError{Field: "text", Reason: "text cannot be empty"}
	}
	return nil
}

// DocumentPage is one page of a document listing. NextOffset is an opaque
// continuation token; empty means no further pages.
type DocumentPage struct {
	Documents  []*Document `json:"documents"`
	Total      int         `json:"total"`
	NextOffset string      `json:"next_offset,omitempty"`
}
