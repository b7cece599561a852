// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"taxotree/internal/models"
)

func TestClassificationCRUD(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()
	t.Cleanup(func() { cleanClassifications(t, db, "TEST_CLS_CRUD") })

	exists, err := s.ClassificationExists(ctx, "TEST_CLS_CRUD")
	if err != nil {
		t.Fatalf("ClassificationExists: %v", err)
	}
	if exists {
		t.Fatal("classification should not exist yet")
	}

	cls := &models.Classification{
		ID:     "TEST_CLS_CRUD",
		Labels: []models.Label{{Lang: "en", Text: "Test", Description: "integration fixture"}},
	}
	if err := s.CreateClassification(ctx, cls); err != nil {
		t.Fatalf("CreateClassification: %v", err)
	}

	got, err := s.GetClassification(ctx, "TEST_CLS_CRUD")
	if err != nil {
		t.Fatalf("GetClassification: %v", err)
	}
	if got == nil || got.ID != "TEST_CLS_CRUD" {
		t.Fatalf("unexpected classification: %+v", got)
	}
	if len(got.Labels) != 1 || got.Labels[0].Description != "integration fixture" {
		t.Errorf("labels did not round-trip: %+v", got.Labels)
	}

	cls.Labels = []models.Label{{Lang: "en", Text: "Renamed"}}
	if err := s.UpdateClassification(ctx, cls); err != nil {
		t.Fatalf("UpdateClassification: %v", err)
	}
	got, err = s.GetClassification(ctx, "TEST_CLS_CRUD")
	if err != nil {
		t.Fatalf("GetClassification: %v", err)
	}
	if got.Labels[0].Text != "Renamed" {
		t.Errorf("update not persisted: %+v", got.Labels)
	}

	if err := s.DeleteClassification(ctx, "TEST_CLS_CRUD"); err != nil {
		t.Fatalf("DeleteClassification: %v", err)
	}
	got, err = s.GetClassification(ctx, "TEST_CLS_CRUD")
	if err != nil {
		t.Fatalf("GetClassification after delete: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestMaxClassificationSuffix(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()
	ids := []string{"TESTSEQ_0002", "TESTSEQ_0017", "TESTSEQ_junk"}
	t.Cleanup(func() { cleanClassifications(t, db, ids...) })

	for _, id := range ids {
		if err := s.CreateClassification(ctx, &models.Classification{ID: id}); err != nil {
			t.Fatalf("CreateClassification %s: %v", id, err)
		}
	}

	max, err := s.MaxClassificationSuffix(ctx, "TESTSEQ_")
	if err != nil {
		t.Fatalf("MaxClassificationSuffix: %v", err)
	}
	// Non-numeric suffixes are ignored.
	if max != 17 {
		t.Errorf("expected 17, got %d", max)
	}

	max, err = s.MaxClassificationSuffix(ctx, "TESTSEQ_NOPREFIX_")
	if err != nil {
		t.Fatalf("MaxClassificationSuffix: %v", err)
	}
	if max != 0 {
		t.Errorf("expected 0 for unused prefix, got %d", max)
	}
}

func TestCategoryCRUDAndChildren(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()
	t.Cleanup(func() { cleanClassifications(t, db, "TEST_CAT") })

	if err := s.CreateClassification(ctx, &models.Classification{ID: "TEST_CAT"}); err != nil {
		t.Fatalf("CreateClassification: %v", err)
	}

	parent := "sciences"
	cats := []*models.Category{
		{ID: "sciences", ClassificationID: "TEST_CAT", Position: 0,
			Labels: []models.Label{{Lang: "en", Text: "Sciences"}},
			Link:   &models.Link{Type: "locator", Href: "https://example.org/sciences"}},
		{ID: "humanities", ClassificationID: "TEST_CAT", Position: 1},
		{ID: "physics", ClassificationID: "TEST_CAT", ParentID: &parent, Position: 0},
		{ID: "biology", ClassificationID: "TEST_CAT", ParentID: &parent, Position: 1},
	}
	for _, c := range cats {
		if err := s.CreateCategory(ctx, c); err != nil {
			t.Fatalf("CreateCategory %s: %v", c.ID, err)
		}
	}
	if err := s.AddLinkedObject(ctx, "TEST_CAT", "physics", uuid.New().String()); err != nil {
		t.Fatalf("AddLinkedObject: %v", err)
	}

	got, err := s.GetCategory(ctx, "TEST_CAT", "sciences")
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if got == nil || got.Link == nil || got.Link.Href != "https://example.org/sciences" {
		t.Fatalf("category did not round-trip: %+v", got)
	}

	missing, err := s.GetCategory(ctx, "TEST_CAT", "ghost")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing category, got %+v, %v", missing, err)
	}

	// Root children in position order, with HasChildren computed.
	roots, err := s.Children(ctx, "TEST_CAT", nil)
	if err != nil {
		t.Fatalf("Children: %v", err)
	}
	if len(roots) != 2 || roots[0].ID != "sciences" || roots[1].ID != "humanities" {
		t.Fatalf("unexpected roots: %+v", roots)
	}
	if !roots[0].HasChildren || roots[1].HasChildren {
		t.Error("HasChildren flags wrong on root set")
	}

	kids, err := s.Children(ctx, "TEST_CAT", &parent)
	if err != nil {
		t.Fatalf("Children of sciences: %v", err)
	}
	if len(kids) != 2 || kids[0].ID != "physics" {
		t.Fatalf("unexpected children: %+v", kids)
	}
	if kids[0].LinkedObjects != 1 || kids[1].LinkedObjects != 0 {
		t.Errorf("linked-object counts wrong: %d, %d", kids[0].LinkedObjects, kids[1].LinkedObjects)
	}

	count, err := s.ChildCount(ctx, "TEST_CAT", &parent)
	if err != nil || count != 2 {
		t.Errorf("ChildCount: got %d, %v", count, err)
	}

	// Update moves biology to the front.
	bio, _ := s.GetCategory(ctx, "TEST_CAT", "biology")
	bio.Position = -1
	bio.Labels = []models.Label{{Lang: "en", Text: "Biology"}}
	if err := s.UpdateCategory(ctx, bio); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	kids, err = s.Children(ctx, "TEST_CAT", &parent)
	if err != nil {
		t.Fatalf("Children after update: %v", err)
	}
	if kids[0].ID != "biology" || kids[0].Labels[0].Text != "Biology" {
		t.Errorf("update not reflected in child order: %+v", kids)
	}

	// Delete removes the row and its linked objects.
	if err := s.DeleteCategory(ctx, "TEST_CAT", "physics"); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if got, _ := s.GetCategory(ctx, "TEST_CAT", "physics"); got != nil {
		t.Error("physics should be gone")
	}
	n, err := s.CountLinkedObjects(ctx, "TEST_CAT", nil)
	if err != nil || n != 0 {
		t.Errorf("links not removed with category: %d, %v", n, err)
	}
}

func TestCountLinkedObjects(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()
	t.Cleanup(func() { cleanClassifications(t, db, "TEST_LINKS") })

	if err := s.CreateClassification(ctx, &models.Classification{ID: "TEST_LINKS"}); err != nil {
		t.Fatalf("CreateClassification: %v", err)
	}
	for _, id := range []string{"a", "b", "c"} {
		if err := s.CreateCategory(ctx, &models.Category{ID: id, ClassificationID: "TEST_LINKS"}); err != nil {
			t.Fatalf("CreateCategory: %v", err)
		}
	}
	s.AddLinkedObject(ctx, "TEST_LINKS", "a", uuid.New().String())
	s.AddLinkedObject(ctx, "TEST_LINKS", "a", uuid.New().String())
	s.AddLinkedObject(ctx, "TEST_LINKS", "b", uuid.New().String())

	a := "a"
	n, err := s.CountLinkedObjects(ctx, "TEST_LINKS", &a)
	if err != nil || n != 2 {
		t.Errorf("per-category count: got %d, %v", n, err)
	}
	n, err = s.CountLinkedObjects(ctx, "TEST_LINKS", nil)
	if err != nil || n != 3 {
		t.Errorf("classification-wide count: got %d, %v", n, err)
	}
	n, err = s.CountLinkedObjectsIn(ctx, "TEST_LINKS", []string{"a", "c"})
	if err != nil || n != 2 {
		t.Errorf("subtree count: got %d, %v", n, err)
	}
	n, err = s.CountLinkedObjectsIn(ctx, "TEST_LINKS", nil)
	if err != nil || n != 0 {
		t.Errorf("empty subtree count: got %d, %v", n, err)
	}

	obj := uuid.New().String()
	s.AddLinkedObject(ctx, "TEST_LINKS", "c", obj)
	if err := s.RemoveLinkedObject(ctx, "TEST_LINKS", "c", obj); err != nil {
		t.Fatalf("RemoveLinkedObject: %v", err)
	}
	c := "c"
	n, err = s.CountLinkedObjects(ctx, "TEST_LINKS", &c)
	if err != nil || n != 0 {
		t.Errorf("count after remove: got %d, %v", n, err)
	}
}

func TestLoadAndReplaceTree(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()
	t.Cleanup(func() { cleanClassifications(t, db, "TEST_TREE") })

	if err := s.CreateClassification(ctx, &models.Classification{
		ID: "TEST_TREE", Labels: []models.Label{{Lang: "en", Text: "Tree"}},
	}); err != nil {
		t.Fatalf("CreateClassification: %v", err)
	}
	parent := "a"
	for _, c := range []*models.Category{
		{ID: "a", ClassificationID: "TEST_TREE", Position: 0},
		{ID: "a1", ClassificationID: "TEST_TREE", ParentID: &parent, Position: 0},
		{ID: "a2", ClassificationID: "TEST_TREE", ParentID: &parent, Position: 1},
		{ID: "b", ClassificationID: "TEST_TREE", Position: 1},
	} {
		if err := s.CreateCategory(ctx, c); err != nil {
			t.Fatalf("CreateCategory %s: %v", c.ID, err)
		}
	}
	s.AddLinkedObject(ctx, "TEST_TREE", "a1", uuid.New().String())

	snap, err := s.LoadTree(ctx, "TEST_TREE")
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	if len(snap.RootCategories) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(snap.RootCategories))
	}
	a := snap.RootCategories[0]
	if a.ID != "a" || !a.HasChildren || len(a.Children) != 2 {
		t.Fatalf("nested load wrong: %+v", a)
	}
	if a.Children[0].LinkedObjects != 1 {
		t.Errorf("linked-object count missing in loaded tree: %+v", a.Children[0])
	}

	// Edit the snapshot: drop subtree a2, reorder roots, add c under b.
	a.Children = a.Children[:1]
	b := snap.RootCategories[1]
	b.Children = []*models.Category{{ID: "c", ClassificationID: "TEST_TREE", ParentID: &b.ID}}
	snap.RootCategories = []*models.Category{b, a}
	snap.Labels = []models.Label{{Lang: "en", Text: "Tree v2"}}

	if err := s.ReplaceTree(ctx, snap); err != nil {
		t.Fatalf("ReplaceTree: %v", err)
	}

	got, err := s.LoadTree(ctx, "TEST_TREE")
	if err != nil {
		t.Fatalf("LoadTree after replace: %v", err)
	}
	if got.Labels[0].Text != "Tree v2" {
		t.Errorf("classification labels not replaced: %+v", got.Labels)
	}
	if len(got.RootCategories) != 2 || got.RootCategories[0].ID != "b" || got.RootCategories[1].ID != "a" {
		t.Fatalf("root order not replaced: %+v", got.RootCategories)
	}
	if len(got.RootCategories[0].Children) != 1 || got.RootCategories[0].Children[0].ID != "c" {
		t.Errorf("new child not inserted: %+v", got.RootCategories[0].Children)
	}
	if gone, _ := s.GetCategory(ctx, "TEST_TREE", "a2"); gone != nil {
		t.Error("pruned category survived replace")
	}

	// Pruning an entire snapshot leaves an empty but live classification.
	got.RootCategories = nil
	if err := s.ReplaceTree(ctx, got); err != nil {
		t.Fatalf("ReplaceTree to empty: %v", err)
	}
	empty, err := s.LoadTree(ctx, "TEST_TREE")
	if err != nil {
		t.Fatalf("LoadTree empty: %v", err)
	}
	if len(empty.RootCategories) != 0 {
		t.Errorf("expected empty tree, got %+v", empty.RootCategories)
	}
	n, _ := s.CountLinkedObjects(ctx, "TEST_TREE", nil)
	if n != 0 {
		t.Errorf("links must be pruned with their categories, got %d", n)
	}
}

func TestLoadTreeMissingClassification(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)

	snap, err := s.LoadTree(context.Background(), "TEST_NO_SUCH")
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	if snap != nil {
		t.Errorf("expected nil snapshot, got %+v", snap)
	}
}
