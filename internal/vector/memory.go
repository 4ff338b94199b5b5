package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for tests and development without a
// running Qdrant. Search is brute-force over all points in the collection.
type MemoryStore struct {
	collections map[string]*memCollection
	mu          sync.RWMutex
}

type memCollection struct {
	spec   CollectionSpec
	points map[string]Point
	order  []string // insertion order, drives scroll
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memCollection)}
}

func (m *MemoryStore) CreateCollection(ctx context.Context, spec CollectionSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[spec.Name]; ok {
		return fmt.Errorf("collection %q: %w", spec.Name, ErrAlreadyExists)
	}
	m.collections[spec.Name] = &memCollection{
		spec:   spec,
		points: make(map[string]Point),
	}
	return nil
}

func (m *MemoryStore) ListCollections(ctx context.Context) ([]CollectionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]CollectionInfo, 0, len(m.collections))
	for _, c := range m.collections {
		infos = append(infos, c.info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (m *MemoryStore) DescribeCollection(ctx context.Context, name string) (CollectionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[name]
	if !ok {
		return CollectionInfo{}, fmt.Errorf("collection %q: %w", name, ErrNotFound)
	}
	return c.info(), nil
}

func (m *MemoryStore) DeleteCollection(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; !ok {
		return fmt.Errorf("collection %q: %w", name, ErrNotFound)
	}
	delete(m.collections, name)
	return nil
}

func (m *MemoryStore) EnsureCollection(ctx context.Context, spec CollectionSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[spec.Name]; ok {
		return nil
	}
	m.collections[spec.Name] = &memCollection{
		spec:   spec,
		points: make(map[string]Point),
	}
	return nil
}

func (m *MemoryStore) Upsert(ctx context.Context, collection string, points []Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("collection %q: %w", collection, ErrNotFound)
	}
	for _, p := range points {
		if c.spec.Dimension > 0 && uint64(len(p.Vector)) != c.spec.Dimension {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(p.Vector), c.spec.Dimension)
		}
		if _, exists := c.points[p.ID]; !exists {
			c.order = append(c.order, p.ID)
		}
		vec := make([]float32, len(p.Vector))
		copy(vec, p.Vector)
		c.points[p.ID] = Point{ID: p.ID, Vector: vec, Payload: p.Payload}
	}
	return nil
}

func (m *MemoryStore) DeletePoint(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("collection %q: %w", collection, ErrNotFound)
	}
	if _, ok := c.points[id]; !ok {
		return fmt.Errorf("point %q: %w", id, ErrNotFound)
	}
	delete(c.points, id)
	for i, pid := range c.order {
		if pid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) Scroll(ctx context.Context, collection, offset string, limit int) (Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[collection]
	if !ok {
		return Page{}, fmt.Errorf("collection %q: %w", collection, ErrNotFound)
	}
	start := 0
	if offset != "" {
		start = len(c.order)
		for i, id := range c.order {
			if id == offset {
				start = i
				break
			}
		}
	}
	var page Page
	for i := start; i < len(c.order); i++ {
		if len(page.Points) == limit {
			page.NextOffset = c.order[i]
			break
		}
		page.Points = append(page.Points, c.points[c.order[i]])
	}
	return page, nil
}

func (m *MemoryStore) Search(ctx context.Context, collection string, vec []float32, limit int) ([]ScoredPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", collection, ErrNotFound)
	}
	if limit <= 0 || len(c.order) == 0 {
		return []ScoredPoint{}, nil
	}
	scored := make([]ScoredPoint, 0, len(c.order))
	for _, id := range c.order {
		p := c.points[id]
		scored = append(scored, ScoredPoint{
			ID:      p.ID,
			Score:   score(c.spec.Distance, vec, p.Vector),
			Payload: p.Payload,
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if limit < len(scored) {
		scored = scored[:limit]
	}
	return scored, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func (c *memCollection) info() CollectionInfo {
	return CollectionInfo{
		Name:        c.spec.Name,
		Dimension:   c.spec.Dimension,
		Distance:    c.spec.Distance,
		PointsCount: uint64(len(c.points)),
		Status:      "green",
	}
}

// score computes the similarity between two vectors under the given metric.
// Euclidean distance is negated so that higher is always better, matching the
// descending order the Search contract promises.
func score(metric Metric, a, b []float32) float32 {
	switch metric {
	case MetricEuclidean:
		var sum float64
		for i := range a {
			d := float64(a[i] - b[i])
			sum += d * d
		}
		return float32(-math.Sqrt(sum))
	case MetricDot:
		return dot(a, b)
	default: // cosine
		na, nb := norm(a), norm(b)
		if na == 0 || nb == 0 {
			return 0
		}
		return dot(a, b) / (na * nb)
	}
}

func dot(a, b []float32) float32 {
	var sum float64
	for i := range a {
		sum += float64(a[i] * b[i])
	}
	return float32(sum)
}

func norm(x []float32) float32 {
	var sum float64
	for _, v := range x {
		sum += float64(v * v)
	}
	return float32(math.Sqrt(sum))
}

var _ Store = (*MemoryStore)(nil)
