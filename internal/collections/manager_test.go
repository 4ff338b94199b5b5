package collections

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/chikai/internal/models"
	"github.com/hyperjump/chikai/internal/vector"
)

func TestCreateAndDescribe(t *testing.T) {
	m := NewManager(vector.NewMemoryStore())
	ctx := context.Background()

	err := m.Create(ctx, &models.CollectionCreate{Name: "notes", VectorSize: 384, Distance: "cosine"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	detail, err := m.Describe(ctx, "notes")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if detail.Dimension != 384 || detail.Distance != "cosine" || detail.PointsCount != 0 {
		t.Errorf("detail: %+v", detail)
	}
}

func TestCreateDuplicateKeepsOriginal(t *testing.T) {
	m := NewManager(vector.NewMemoryStore())
	ctx := context.Background()

	if err := m.Create(ctx, &models.CollectionCreate{Name: "notes", VectorSize: 384, Distance: "cosine"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := m.Create(ctx, &models.CollectionCreate{Name: "notes", VectorSize: 768, Distance: "dot"})
	if !errors.Is(err, vector.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	detail, err := m.Describe(ctx, "notes")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if detail.Dimension != 384 || detail.Distance != "cosine" {
		t.Errorf("original collection altered: %+v", detail)
	}
}

func TestCreateBadDistance(t *testing.T) {
	m := NewManager(vector.NewMemoryStore())
	err := m.Create(context.Background(), &models.CollectionCreate{Name: "notes", VectorSize: 4, Distance: "hamming"})
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestDescribeNotFound(t *testing.T) {
	m := NewManager(vector.NewMemoryStore())
	if _, err := m.Describe(context.Background(), "missing"); !errors.Is(err, vector.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteNotFound(t *testing.T) {
	m := NewManager(vector.NewMemoryStore())
	if err := m.Delete(context.Background(), "missing"); !errors.Is(err, vector.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEnsureDefaultIdempotent(t *testing.T) {
	m := NewManager(vector.NewMemoryStore())
	ctx := context.Background()
	if err := m.EnsureDefault(ctx, "documents", 384, "cosine"); err != nil {
		t.Fatalf("EnsureDefault: %v", err)
	}
	if err := m.EnsureDefault(ctx, "documents", 384, "cosine"); err != nil {
		t.Fatalf("EnsureDefault (second): %v", err)
	}
	list, err := m.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Name != "documents" {
		t.Errorf("list: %+v", list)
	}
}
