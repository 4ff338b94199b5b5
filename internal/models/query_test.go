package models

import (
	"errors"
	"testing"
)

func TestSearchQueryValidate(t *testing.T) {
	tests := []struct {
		name      string
		query     SearchQuery
		wantErr   bool
		wantLimit int
	}{
		{name: "empty query rejected", query: SearchQuery{}, wantErr: true},
		{name: "zero limit gets default", query: SearchQuery{Query: "hello"}, wantLimit: 5},
		{name: "limit is kept", query: SearchQuery{Query: "hello", Limit: 20}, wantLimit: 20},
		{name: "limit clamped to max", query: SearchQuery{Query: "hello", Limit: 5000}, wantLimit: 100},
		{name: "negative limit rejected", query: SearchQuery{Query: "hello", Limit: -1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate(5, 100)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("expected ValidationError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if tt.query.Limit != tt.wantLimit {
				t.Errorf("limit: got %d, want %d", tt.query.Limit, tt.wantLimit)
			}
		})
	}
}

func TestDocumentInputValidate(t *testing.T) {
	in := DocumentInput{}
	if err := in.Validate(); err == nil {
		t.Error("expected error for empty text")
	}
	in.Text = "some content"
	if err := in.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestCollectionCreateValidate(t *testing.T) {
	c := CollectionCreate{}
	if err := c.Validate(384, "cosine"); err == nil {
		t.Error("expected error for empty name")
	}

	c = CollectionCreate{Name: "notes"}
	if err := c.Validate(384, "cosine"); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if c.VectorSize != 384 || c.Distance != "cosine" {
		t.Errorf("defaults not applied: size=%d distance=%q", c.VectorSize, c.Distance)
	}

	c = CollectionCreate{Name: "notes", VectorSize: -3}
	if err := c.Validate(384, "cosine"); err == nil {
		t.Error("expected error for negative vector_size")
	}
}
