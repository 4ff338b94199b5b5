// Package vector provides collection and point storage backed by a vector database.
package vector

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for store operations. The API layer maps these to HTTP
// status codes with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnavailable   = errors.New("vector database unavailable")
)

// Metric is a distance metric for a collection.
type Metric string

const (
	MetricCosine    Metric = "cosine"
	MetricEuclidean Metric = "euclidean"
	MetricDot       Metric = "dot"
)

// ParseMetric parses a metric name case-insensitively. "euclid" is accepted as
// an alias for "euclidean" (Qdrant's spelling).
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(s) {
	case "cosine":
		return MetricCosine, nil
	case "euclidean", "euclid":
		return MetricEuclidean, nil
	case "dot":
		return MetricDot, nil
	default:
		return "", fmt.Errorf("unknown distance metric %q", s)
	}
}

// CollectionSpec describes a collection to create.
type CollectionSpec struct {
	Name      string
	Dimension uint64
	Distance  Metric
}

// CollectionInfo describes an existing collection.
type CollectionInfo struct {
	Name        string
	Dimension   uint64
	Distance    Metric
	PointsCount uint64
	Status      string
}

// Point is a stored vector with its payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]interface{}
}

// ScoredPoint is a similarity search hit.
type ScoredPoint struct {
	ID      string
	Score   float32
	Payload map[string]interface{}
}

// Page is one page of a scroll. NextOffset is the point ID to pass as the next
// scroll offset; empty means the scroll is exhausted.
type Page struct {
	Points     []Point
	NextOffset string
}

// Store is the contract to the external vector database: collection CRUD,
// point upsert/delete, cursor-paginated scroll, and nearest-neighbor search.
type Store interface {
	// CreateCollection provisions a collection. Returns ErrAlreadyExists if a
	// collection with the same name exists; the existing collection is untouched.
	CreateCollection(ctx context.Context, spec CollectionSpec) error
	// ListCollections returns all collections with point counts.
	ListCollections(ctx context.Context) ([]CollectionInfo, error)
	// DescribeCollection returns dimension, metric, and point count.
	// Returns ErrNotFound if absent.
	DescribeCollection(ctx context.Context, name string) (CollectionInfo, error)
	// DeleteCollection removes the collection and all contained points.
	// Returns ErrNotFound if absent.
	DeleteCollection(ctx context.Context, name string) error
	// EnsureCollection creates the collection if it does not already exist.
	EnsureCollection(ctx context.Context, spec CollectionSpec) error

	// Upsert inserts or replaces points by ID. Returns ErrNotFound if the
	// collection is absent.
	Upsert(ctx context.Context, collection string, points []Point) error
	// DeletePoint removes a point by ID. Returns ErrNotFound if the point (or
	// the collection) is absent, so a repeated delete of the same ID reports
	// ErrNotFound rather than silently succeeding.
	DeletePoint(ctx context.Context, collection, id string) error
	// Scroll returns up to limit points starting at the point identified by
	// offset (empty for the first page). Ordering is whatever the backing
	// store yields; it is stable within one scroll but otherwise unspecified.
	Scroll(ctx context.Context, collection, offset string, limit int) (Page, error)
	// Search returns the limit nearest points to vec ordered by descending
	// similarity score. An empty collection yields an empty slice, not an error.
	Search(ctx context.Context, collection string, vec []float32, limit int) ([]ScoredPoint, error)

	Close() error
}
