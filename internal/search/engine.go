// Package search provides the similarity search facade.
package search

import (
	"context"
	"fmt"

	"github.com/hyperjump/chikai/internal/config"
	"github.com/hyperjump/chikai/internal/embedding"
	"github.com/hyperjump/chikai/internal/models"
	"github.com/hyperjump/chikai/internal/vector"
)

// Engine runs nearest-neighbor search: embed the query text and ask the vector
// store for the closest documents.
type Engine struct {
	store    vector.Store
	embedder embedding.Embedder
	config   *config.DocumentsConfig
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(store vector.Store, embedder embedding.Embedder, cfg *config.DocumentsConfig) *Engine {
	return &Engine{store: store, embedder: embedder, config: cfg}
}

// Search embeds the query and returns the nearest documents ordered by
// descending similarity score. An empty collection yields an empty result
// list, not an error.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	if err := query.Validate(e.config.DefaultLimit, e.config.MaxLimit); err != nil {
		return nil, err
	}
	collection := query.Collection
	if collection == "" {
		collection = e.config.DefaultCollection
	}

	queryVec, err := e.embedder.Embed(ctx, query.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := e.store.Search(ctx, collection, queryVec, query.Limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]*models.SearchResult, len(hits))
	for i, hit := range hits {
		result := &models.SearchResult{
			ID:       hit.ID,
			Score:    hit.Score,
			Metadata: make(map[string]interface{}),
		}
		for k, v := range hit.Payload {
			if k == "text" {
				if text, ok := v.(string); ok {
					result.Text = text
				}
				continue
			}
			result.Metadata[k] = v
		}
		results[i] = result
	}
	return &models.SearchResponse{Query: query.Query, Results: results}, nil
}
