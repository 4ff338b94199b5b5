package vector

import (
	"context"
	"errors"
	"testing"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	err := s.CreateCollection(context.Background(), CollectionSpec{
		Name: "docs", Dimension: 3, Distance: MetricCosine,
	})
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	return s
}

func TestCreateCollectionDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	err := s.CreateCollection(ctx, CollectionSpec{Name: "docs", Dimension: 8, Distance: MetricDot})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	// The existing collection must be untouched.
	info, err := s.DescribeCollection(ctx, "docs")
	if err != nil {
		t.Fatalf("DescribeCollection: %v", err)
	}
	if info.Dimension != 3 || info.Distance != MetricCosine {
		t.Errorf("collection altered by failed create: %+v", info)
	}
}

func TestDescribeCollectionNotFound(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.DescribeCollection(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCollection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.DeleteCollection(ctx, "docs"); err != nil {
		t.Fatalf("DeleteCollection: %v", err)
	}
	if err := s.DeleteCollection(ctx, "docs"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestEnsureCollectionIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	spec := CollectionSpec{Name: "docs", Dimension: 3, Distance: MetricCosine}
	if err := s.EnsureCollection(ctx, spec); err != nil {
		t.Fatalf("EnsureCollection on existing: %v", err)
	}
	if err := s.EnsureCollection(ctx, CollectionSpec{Name: "fresh", Dimension: 2, Distance: MetricDot}); err != nil {
		t.Fatalf("EnsureCollection on new: %v", err)
	}
	if _, err := s.DescribeCollection(ctx, "fresh"); err != nil {
		t.Errorf("ensured collection missing: %v", err)
	}
}

func TestUpsertUnknownCollection(t *testing.T) {
	s := NewMemoryStore()
	err := s.Upsert(context.Background(), "nope", []Point{{ID: "a", Vector: []float32{1}}})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertDimensionMismatch(t *testing.T) {
	s := newTestStore(t)
	err := s.Upsert(context.Background(), "docs", []Point{{ID: "a", Vector: []float32{1, 2}}})
	if err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestDeletePointTwiceReportsNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Upsert(ctx, "docs", []Point{{ID: "a", Vector: []float32{1, 0, 0}}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.DeletePoint(ctx, "docs", "a"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := s.DeletePoint(ctx, "docs", "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestScrollPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := []string{"p1", "p2", "p3", "p4", "p5"}
	for _, id := range ids {
		if err := s.Upsert(ctx, "docs", []Point{{ID: id, Vector: []float32{1, 0, 0}}}); err != nil {
			t.Fatalf("Upsert %s: %v", id, err)
		}
	}

	var collected []string
	offset := ""
	for {
		page, err := s.Scroll(ctx, "docs", offset, 2)
		if err != nil {
			t.Fatalf("Scroll: %v", err)
		}
		if len(page.Points) > 2 {
			t.Fatalf("page size: got %d, want <= 2", len(page.Points))
		}
		for _, p := range page.Points {
			collected = append(collected, p.ID)
		}
		if page.NextOffset == "" {
			break
		}
		offset = page.NextOffset
	}

	if len(collected) != len(ids) {
		t.Fatalf("collected %d ids, want %d: %v", len(collected), len(ids), collected)
	}
	seen := make(map[string]bool)
	for _, id := range collected {
		if seen[id] {
			t.Errorf("id %s returned twice", id)
		}
		seen[id] = true
	}
}

func TestScrollUnknownCollection(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Scroll(context.Background(), "nope", "", 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	points := []Point{
		{ID: "exact", Vector: []float32{1, 0, 0}},
		{ID: "close", Vector: []float32{0.9, 0.1, 0}},
		{ID: "far", Vector: []float32{0, 0, 1}},
	}
	if err := s.Upsert(ctx, "docs", points); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := s.Search(ctx, "docs", []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results: got %d", len(results))
	}
	if results[0].ID != "exact" {
		t.Errorf("best match: got %s", results[0].ID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not in descending score order: %v", results)
		}
	}
}

func TestSearchEmptyCollection(t *testing.T) {
	s := newTestStore(t)
	results, err := s.Search(context.Background(), "docs", []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Search on empty collection: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results, got %v", results)
	}
}

func TestSearchLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := s.Upsert(ctx, "docs", []Point{{ID: id, Vector: []float32{1, 0, 0}}}); err != nil {
			t.Fatal(err)
		}
	}
	results, err := s.Search(ctx, "docs", []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("limit not applied: got %d results", len(results))
	}
}

func TestScoreMetrics(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	if got := score(MetricCosine, a, a); got < 0.999 {
		t.Errorf("cosine self-similarity: got %f", got)
	}
	if got := score(MetricCosine, a, b); got > 0.001 {
		t.Errorf("cosine orthogonal: got %f", got)
	}
	if got := score(MetricEuclidean, a, a); got != 0 {
		t.Errorf("euclidean self-distance: got %f", got)
	}
	if score(MetricEuclidean, a, b) >= score(MetricEuclidean, a, a) {
		t.Error("euclidean: farther vector should score lower")
	}
	if got := score(MetricDot, []float32{2, 0}, []float32{3, 0}); got != 6 {
		t.Errorf("dot: got %f, want 6", got)
	}
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in      string
		want    Metric
		wantErr bool
	}{
		{"cosine", MetricCosine, false},
		{"Cosine", MetricCosine, false},
		{"euclidean", MetricEuclidean, false},
		{"Euclid", MetricEuclidean, false},
		{"dot", MetricDot, false},
		{"manhattan", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMetric(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMetric(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseMetric(%q) = %v, %v", tt.in, got, err)
		}
	}
}
