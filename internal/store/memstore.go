// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// memstore.go provides an in-memory CategoryStore implementation with the
// same contract as the PostgreSQL one. It backs hermetic tests of the
// manager, editor, and browse layers, and can serve as a throwaway store
// for local experiments.
package store

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"taxotree/internal/models"
)

// MemStore is a concurrency-safe in-memory classification store. All
// reads return deep copies so callers can never mutate stored state
// except through the write methods, matching database semantics.
type MemStore struct {
	mu              sync.RWMutex
	classifications map[string]*models.Classification
	categories      map[string]map[string]*models.Category // classification -> category ID
	links           map[string]map[string][]string         // classification -> category -> object IDs

	// FailWrites, when non-nil, is returned by every mutating method.
	// Tests use it to verify that a failed store write leaves caches in
	// their last-known-good state.
	FailWrites error
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		classifications: map[string]*models.Classification{},
		categories:      map[string]map[string]*models.Category{},
		links:           map[string]map[string][]string{},
	}
}

func (s *MemStore) ClassificationExists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.classifications[id]
	return ok, nil
}

func (s *MemStore) GetClassification(ctx context.Context, id string) (*models.Classification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cls, ok := s.classifications[id]
	if !ok {
		return nil, nil
	}
	out := cls.Clone()
	out.RootCategories = nil
	return out, nil
}

func (s *MemStore) CreateClassification(ctx context.Context, c *models.Classification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.classifications[c.ID] = c.Clone()
	if s.categories[c.ID] == nil {
		s.categories[c.ID] = map[string]*models.Category{}
	}
	return nil
}

func (s *MemStore) UpdateClassification(ctx context.Context, c *models.Classification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	stored := c.Clone()
	stored.RootCategories = nil
	s.classifications[c.ID] = stored
	return nil
}

func (s *MemStore) DeleteClassification(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	delete(s.classifications, id)
	delete(s.categories, id)
	delete(s.links, id)
	return nil
}

func (s *MemStore) CategoryExists(ctx context.Context, classificationID, categoryID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.categories[classificationID][categoryID]
	return ok, nil
}

func (s *MemStore) GetCategory(ctx context.Context, classificationID, categoryID string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cat, ok := s.categories[classificationID][categoryID]
	if !ok {
		return nil, nil
	}
	out := cat.Clone()
	out.Children = nil
	return out, nil
}

func (s *MemStore) CreateCategory(ctx context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	if s.categories[c.ClassificationID] == nil {
		s.categories[c.ClassificationID] = map[string]*models.Category{}
	}
	stored := c.Clone()
	stored.Children = nil
	s.categories[c.ClassificationID][c.ID] = stored
	return nil
}

func (s *MemStore) UpdateCategory(ctx context.Context, c *models.Category) error {
	return s.CreateCategory(ctx, c)
}

func (s *MemStore) DeleteCategory(ctx context.Context, classificationID, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	delete(s.categories[classificationID], categoryID)
	if byCat, ok := s.links[classificationID]; ok {
		delete(byCat, categoryID)
	}
	return nil
}

// childrenLocked returns copies of a parent's children ordered by
// position then ID. Callers hold at least the read lock.
func (s *MemStore) childrenLocked(classificationID string, parentID *string) []*models.Category {
	var out []*models.Category
	for _, cat := range s.categories[classificationID] {
		if !ptrEqual(cat.ParentID, parentID) {
			continue
		}
		cp := cat.Clone()
		cp.Children = nil
		cp.LinkedObjects = len(s.links[classificationID][cat.ID])
		cp.HasChildren = false
		for _, other := range s.categories[classificationID] {
			if other.ParentID != nil && *other.ParentID == cat.ID {
				cp.HasChildren = true
				break
			}
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *MemStore) Children(ctx context.Context, classificationID string, parentID *string) ([]*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.childrenLocked(classificationID, parentID), nil
}

func (s *MemStore) ChildCount(ctx context.Context, classificationID string, parentID *string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.childrenLocked(classificationID, parentID)), nil
}

func (s *MemStore) CountLinkedObjects(ctx context.Context, classificationID string, categoryID *string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if categoryID != nil {
		return len(s.links[classificationID][*categoryID]), nil
	}
	total := 0
	for _, objects := range s.links[classificationID] {
		total += len(objects)
	}
	return total, nil
}

func (s *MemStore) CountLinkedObjectsIn(ctx context.Context, classificationID string, categoryIDs []string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, id := range categoryIDs {
		total += len(s.links[classificationID][id])
	}
	return total, nil
}

// AddLink records a linked-object reference. Test and seed helper.
func (s *MemStore) AddLink(classificationID, categoryID, objectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.links[classificationID] == nil {
		s.links[classificationID] = map[string][]string{}
	}
	s.links[classificationID][categoryID] = append(s.links[classificationID][categoryID], objectID)
}

func (s *MemStore) LoadTree(ctx context.Context, classificationID string) (*models.Classification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cls, ok := s.classifications[classificationID]
	if !ok {
		return nil, nil
	}
	out := cls.Clone()
	out.RootCategories = s.subtreeLocked(classificationID, nil)
	return out, nil
}

// subtreeLocked recursively assembles the nested child lists.
func (s *MemStore) subtreeLocked(classificationID string, parentID *string) []*models.Category {
	children := s.childrenLocked(classificationID, parentID)
	for _, c := range children {
		c.Children = s.subtreeLocked(classificationID, &c.ID)
		c.HasChildren = len(c.Children) > 0
	}
	return children
}

func (s *MemStore) ReplaceTree(ctx context.Context, snap *models.Classification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}

	stored := snap.Clone()
	stored.RootCategories = nil
	s.classifications[snap.ID] = stored

	flat := map[string]*models.Category{}
	var walk func(cats []*models.Category, parentID *string)
	walk = func(cats []*models.Category, parentID *string) {
		for pos, c := range cats {
			cp := c.Clone()
			children := cp.Children
			cp.Children = nil
			cp.Position = pos
			cp.ParentID = parentID
			flat[cp.ID] = cp
			walk(children, &cp.ID)
		}
	}
	walk(snap.RootCategories, nil)
	s.categories[snap.ID] = flat

	// Drop links for categories pruned from the snapshot.
	for catID := range s.links[snap.ID] {
		if _, ok := flat[catID]; !ok {
			delete(s.links[snap.ID], catID)
		}
	}
	return nil
}

func (s *MemStore) MaxClassificationSuffix(ctx context.Context, prefix string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for id := range s.classifications {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}
