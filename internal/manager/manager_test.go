// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package manager

import (
	"context"
	"errors"
	"testing"

	"taxotree/internal/cache"
	"taxotree/internal/models"
	"taxotree/internal/store"
)

func testManager(t *testing.T) (*Manager, *store.MemStore) {
	t.Helper()
	nc, err := cache.NewNodeCache(16, 64)
	if err != nil {
		t.Fatalf("NewNodeCache: %v", err)
	}
	ms := store.NewMemStore()
	return New(ms, nc), ms
}

func seedClassification(t *testing.T, m *Manager, id string) {
	t.Helper()
	err := m.CreateClassification(context.Background(), &models.Classification{
		ID:     id,
		Labels: []models.Label{{Lang: "en", Text: id}},
	})
	if err != nil {
		t.Fatalf("seed classification %s: %v", id, err)
	}
}

func TestCategoryRoundTrip(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()
	seedClassification(t, m, "C1")

	created := &models.Category{
		ID:               "physics",
		ClassificationID: "C1",
		Labels:           []models.Label{{Lang: "en", Text: "Physics"}},
		Link:             &models.Link{Href: "https://example.org/physics"},
	}
	if err := m.CreateCategory(ctx, created); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	got, err := m.GetCategory(ctx, "C1", "physics")
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if got.ID != "physics" || got.Labels[0].Text != "Physics" {
		t.Errorf("fetched node differs from created: %+v", got)
	}
	if got.Link.Type != models.DefaultLinkType {
		t.Errorf("link type not defaulted: %q", got.Link.Type)
	}
}

func TestGetClassificationNotFound(t *testing.T) {
	m, _ := testManager(t)

	_, err := m.GetClassification(context.Background(), "missing")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateCollisions(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()
	seedClassification(t, m, "C1")

	err := m.CreateClassification(ctx, &models.Classification{ID: "C1"})
	if !errors.Is(err, models.ErrAlreadyExists) {
		t.Errorf("classification: expected ErrAlreadyExists, got %v", err)
	}

	cat := &models.Category{ID: "x", ClassificationID: "C1"}
	if err := m.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	err = m.CreateCategory(ctx, &models.Category{ID: "x", ClassificationID: "C1"})
	if !errors.Is(err, models.ErrAlreadyExists) {
		t.Errorf("category: expected ErrAlreadyExists, got %v", err)
	}
}

func TestUpdateRefreshesCache(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()
	seedClassification(t, m, "C1")

	cat := &models.Category{ID: "x", ClassificationID: "C1", Labels: []models.Label{{Lang: "en", Text: "old"}}}
	if err := m.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if _, err := m.GetCategory(ctx, "C1", "x"); err != nil {
		t.Fatalf("GetCategory: %v", err)
	}

	updated := &models.Category{ID: "x", ClassificationID: "C1", Labels: []models.Label{{Lang: "en", Text: "new"}}}
	if err := m.UpdateCategory(ctx, updated); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}

	got, err := m.GetCategory(ctx, "C1", "x")
	if err != nil {
		t.Fatalf("GetCategory after update: %v", err)
	}
	if got.Labels[0].Text != "new" {
		t.Errorf("stale cache served after successful update: %+v", got)
	}
}

func TestFailedUpdateKeepsLastKnownGood(t *testing.T) {
	m, ms := testManager(t)
	ctx := context.Background()
	seedClassification(t, m, "C1")

	cat := &models.Category{ID: "x", ClassificationID: "C1", Labels: []models.Label{{Lang: "en", Text: "good"}}}
	if err := m.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	ms.FailWrites = errors.New("connection reset")
	err := m.UpdateCategory(ctx, &models.Category{ID: "x", ClassificationID: "C1", Labels: []models.Label{{Lang: "en", Text: "bad"}}})
	if err == nil {
		t.Fatal("expected update to fail")
	}
	ms.FailWrites = nil

	got, err := m.GetCategory(ctx, "C1", "x")
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if got.Labels[0].Text != "good" {
		t.Errorf("cache lost last-known-good value after failed write: %+v", got)
	}
}

func TestDeleteEvictsCacheBeforeStore(t *testing.T) {
	m, ms := testManager(t)
	ctx := context.Background()
	seedClassification(t, m, "C1")

	cat := &models.Category{ID: "x", ClassificationID: "C1", Labels: []models.Label{{Lang: "en", Text: "X"}}}
	if err := m.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if _, err := m.GetCategory(ctx, "C1", "x"); err != nil {
		t.Fatalf("GetCategory: %v", err)
	}

	// A failing store delete still evicts the cache entry; the next read
	// refetches from the store and self-heals.
	ms.FailWrites = errors.New("store down")
	if err := m.DeleteCategory(ctx, "C1", "x"); err == nil {
		t.Fatal("expected delete to fail")
	}
	ms.FailWrites = nil

	got, err := m.GetCategory(ctx, "C1", "x")
	if err != nil {
		t.Fatalf("GetCategory after failed delete: %v", err)
	}
	if got.Labels[0].Text != "X" {
		t.Errorf("unexpected node after refetch: %+v", got)
	}

	if err := m.DeleteCategory(ctx, "C1", "x"); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if _, err := m.GetCategory(ctx, "C1", "x"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestGetChildrenReconcilesWithCache(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()
	seedClassification(t, m, "C1")

	for i, id := range []string{"a", "b", "c"} {
		cat := &models.Category{ID: id, ClassificationID: "C1", Position: i}
		if err := m.CreateCategory(ctx, cat); err != nil {
			t.Fatalf("CreateCategory %s: %v", id, err)
		}
	}

	// Track b through a direct lookup so it has a cache identity.
	tracked, err := m.GetCategory(ctx, "C1", "b")
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}

	children, err := m.GetChildren(ctx, "C1", nil)
	if err != nil {
		t.Fatalf("GetChildren: %v", err)
	}
	if len(children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(children))
	}
	if children[0].ID != "a" || children[1].ID != "b" || children[2].ID != "c" {
		t.Errorf("children out of order: %v", []string{children[0].ID, children[1].ID, children[2].ID})
	}
	if children[1] != tracked {
		t.Error("cached node identity not preserved in child set")
	}

	// The freshly fetched siblings are now cached too.
	again, err := m.GetChildren(ctx, "C1", nil)
	if err != nil {
		t.Fatalf("GetChildren: %v", err)
	}
	if again[0] != children[0] || again[2] != children[2] {
		t.Error("fresh children were not cached on first fetch")
	}
}

func TestApplySnapshotRefreshesNodes(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()
	seedClassification(t, m, "C1")

	cat := &models.Category{ID: "x", ClassificationID: "C1", Labels: []models.Label{{Lang: "en", Text: "old"}}}
	if err := m.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	snap, err := m.LoadSnapshot(ctx, "C1")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	snap.RootCategories[0].Labels = []models.Label{{Lang: "en", Text: "edited"}}

	if err := m.ApplySnapshot(ctx, snap); err != nil {
		t.Fatalf("ApplySnapshot: %v", err)
	}

	got, err := m.GetCategory(ctx, "C1", "x")
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if got.Labels[0].Text != "edited" {
		t.Errorf("cache not repopulated after snapshot apply: %+v", got)
	}
	if got.Children != nil {
		t.Error("cached node must not carry a loaded subtree")
	}
}

func TestLocksSerializePerClassification(t *testing.T) {
	m, _ := testManager(t)

	m.LockClassification("C1")
	acquired := make(chan struct{})
	go func() {
		m.LockClassification("C1")
		close(acquired)
		m.UnlockClassification("C1")
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first still held")
	default:
	}

	// A different classification is independent.
	m.LockClassification("C2")
	m.UnlockClassification("C2")

	m.UnlockClassification("C1")
	<-acquired
}
