// Package collections provides collection lifecycle management.
package collections

import (
	"context"
	"fmt"

	"github.com/hyperjump/chikai/internal/models"
	"github.com/hyperjump/chikai/internal/vector"
	"go.uber.org/zap"
)

// Manager creates, describes, and deletes named vector collections.
type Manager struct {
	store  vector.Store
	logger *zap.Logger // optional
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets a logger for collection lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a collection manager backed by store.
func NewManager(store vector.Store, opts ...Option) *Manager {
	m := &Manager{store: store}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create provisions a collection. Returns vector.ErrAlreadyExists when the
// name is taken; the existing collection keeps its dimension and contents.
func (m *Manager) Create(ctx context.Context, in *models.CollectionCreate) error {
	metric, err := vector.ParseMetric(in.Distance)
	if err != nil {
		return &models.ValidationError{Field: "distance", Reason: err.Error()}
	}
	spec := vector.CollectionSpec{
		Name:      in.Name,
		Dimension: uint64(in.VectorSize),
		Distance:  metric,
	}
	if err := m.store.CreateCollection(ctx, spec); err != nil {
		return err
	}
	if m.logger != nil {
		m.logger.Info("collection created",
			zap.String("name", in.Name),
			zap.Int("vector_size", in.VectorSize),
			zap.String("distance", string(metric)))
	}
	return nil
}

// List returns all collections with their point counts.
func (m *Manager) List(ctx context.Context) ([]models.CollectionSummary, error) {
	infos, err := m.store.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	summaries := make([]models.CollectionSummary, len(infos))
	for i, info := range infos {
		summaries[i] = models.CollectionSummary{Name: info.Name, PointsCount: info.PointsCount}
	}
	return summaries, nil
}

// Describe returns dimension, metric, and point count for one collection.
func (m *Manager) Describe(ctx context.Context, name string) (*models.CollectionDetail, error) {
	info, err := m.store.DescribeCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	return &models.CollectionDetail{
		Name:        info.Name,
		Dimension:   info.Dimension,
		Distance:    string(info.Distance),
		PointsCount: info.PointsCount,
		Status:      info.Status,
	}, nil
}

// Delete irreversibly removes the collection and all contained documents.
func (m *Manager) Delete(ctx context.Context, name string) error {
	if err := m.store.DeleteCollection(ctx, name); err != nil {
		return err
	}
	if m.logger != nil {
		m.logger.Info("collection deleted", zap.String("name", name))
	}
	return nil
}

// EnsureDefault creates the default collection at startup if it is missing.
func (m *Manager) EnsureDefault(ctx context.Context, name string, dimension int, distance string) error {
	metric, err := vector.ParseMetric(distance)
	if err != nil {
		return fmt.Errorf("default collection distance: %w", err)
	}
	spec := vector.CollectionSpec{Name: name, Dimension: uint64(dimension), Distance: metric}
	if err := m.store.EnsureCollection(ctx, spec); err != nil {
		return fmt.Errorf("ensure default collection: %w", err)
	}
	return nil
}
