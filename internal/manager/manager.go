// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package manager provides the ClassificationManager, the single entry
// point between the tree model and the durable store. Every read goes
// through the bounded node caches; every write keeps them coherent:
// store write before cache insert for create and update, cache removal
// before store delete for deletes. The manager is explicitly constructed
// and dependency-injected; there is no process-wide singleton.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"taxotree/internal/cache"
	"taxotree/internal/models"
)

// Store is the durable backend consumed by the manager. Implemented by
// store.CategoryStore; tests substitute an in-memory fake.
type Store interface {
	ClassificationExists(ctx context.Context, id string) (bool, error)
	GetClassification(ctx context.Context, id string) (*models.Classification, error)
	CreateClassification(ctx context.Context, c *models.Classification) error
	UpdateClassification(ctx context.Context, c *models.Classification) error
	DeleteClassification(ctx context.Context, id string) error

	CategoryExists(ctx context.Context, classificationID, categoryID string) (bool, error)
	GetCategory(ctx context.Context, classificationID, categoryID string) (*models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, classificationID, categoryID string) error

	Children(ctx context.Context, classificationID string, parentID *string) ([]*models.Category, error)
	ChildCount(ctx context.Context, classificationID string, parentID *string) (int, error)
	CountLinkedObjects(ctx context.Context, classificationID string, categoryID *string) (int, error)
	CountLinkedObjectsIn(ctx context.Context, classificationID string, categoryIDs []string) (int, error)

	LoadTree(ctx context.Context, classificationID string) (*models.Classification, error)
	ReplaceTree(ctx context.Context, snap *models.Classification) error
	MaxClassificationSuffix(ctx context.Context, prefix string) (int, error)
}

// Manager mediates all classification and category access.
type Manager struct {
	store Store
	cache *cache.NodeCache

	// One mutex per classification ID: structural edits to the same
	// classification are serialized, different classifications proceed
	// independently.
	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// New creates a Manager over the given store and node cache.
func New(st Store, nc *cache.NodeCache) *Manager {
	return &Manager{
		store: st,
		cache: nc,
		locks: make(map[string]*sync.Mutex),
	}
}

// LockClassification acquires the write lock for one classification.
// Mutating flows (editor operations, manager writes initiated by
// handlers) hold it for the duration of the edit.
func (m *Manager) LockClassification(id string) {
	m.lockMu.Lock()
	mu, ok := m.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		m.locks[id] = mu
	}
	m.lockMu.Unlock()
	mu.Lock()
}

// UnlockClassification releases the write lock for one classification.
func (m *Manager) UnlockClassification(id string) {
	m.lockMu.Lock()
	mu := m.locks[id]
	m.lockMu.Unlock()
	if mu != nil {
		mu.Unlock()
	}
}

// GetClassification returns a classification from cache or store.
func (m *Manager) GetClassification(ctx context.Context, id string) (*models.Classification, error) {
	if cls, ok := m.cache.GetClassification(id); ok {
		return cls, nil
	}
	cls, err := m.store.GetClassification(ctx, id)
	if err != nil {
		return nil, err
	}
	if cls == nil {
		return nil, fmt.Errorf("classification %s: %w", id, models.ErrNotFound)
	}
	m.cache.PutClassification(cls)
	return cls, nil
}

// GetCategory returns a category from cache or store, keyed by the
// (classification, category) composite key.
func (m *Manager) GetCategory(ctx context.Context, classificationID, categoryID string) (*models.Category, error) {
	if cat, ok := m.cache.GetCategory(classificationID, categoryID); ok {
		return cat, nil
	}
	cat, err := m.store.GetCategory(ctx, classificationID, categoryID)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, fmt.Errorf("category %s/%s: %w", classificationID, categoryID, models.ErrNotFound)
	}
	m.cache.PutCategory(cat)
	return cat, nil
}

// GetChildren returns the ordered child set of a parent (root set when
// parentID is nil). Membership always comes from the store; each member
// is then reconciled against the per-node cache so nodes already tracked
// keep their identity, and fresh nodes get cached.
func (m *Manager) GetChildren(ctx context.Context, classificationID string, parentID *string) ([]*models.Category, error) {
	fresh, err := m.store.Children(ctx, classificationID, parentID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Category, len(fresh))
	for i, child := range fresh {
		if cached, ok := m.cache.GetCategory(classificationID, child.ID); ok {
			out[i] = cached
			continue
		}
		m.cache.PutCategory(child)
		out[i] = child
	}
	return out, nil
}

// CountChildren returns the direct child count. Always store-backed.
func (m *Manager) CountChildren(ctx context.Context, classificationID string, parentID *string) (int, error) {
	return m.store.ChildCount(ctx, classificationID, parentID)
}

// CountLinkedObjects returns the linked-object count for a category, or
// for the whole classification when categoryID is nil. Never cached.
func (m *Manager) CountLinkedObjects(ctx context.Context, classificationID string, categoryID *string) (int, error) {
	return m.store.CountLinkedObjects(ctx, classificationID, categoryID)
}

// CreateClassification writes a new classification. Store write first,
// cache insert only after it succeeded.
func (m *Manager) CreateClassification(ctx context.Context, cls *models.Classification) error {
	if err := models.ValidateLabels(cls.Labels); err != nil {
		return err
	}
	exists, err := m.store.ClassificationExists(ctx, cls.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("classification %s: %w", cls.ID, models.ErrAlreadyExists)
	}
	if err := m.store.CreateClassification(ctx, cls); err != nil {
		return err
	}
	m.cache.PutClassification(cls)
	slog.Info("classification created", "id", cls.ID)
	return nil
}

// CreateCategory writes a new category. Store write first, cache insert
// only after it succeeded.
func (m *Manager) CreateCategory(ctx context.Context, cat *models.Category) error {
	if err := models.ValidateLabels(cat.Labels); err != nil {
		return err
	}
	cat.Link.Normalize()
	exists, err := m.store.CategoryExists(ctx, cat.ClassificationID, cat.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("category %s/%s: %w", cat.ClassificationID, cat.ID, models.ErrAlreadyExists)
	}
	if err := m.store.CreateCategory(ctx, cat); err != nil {
		return err
	}
	m.cache.PutCategory(cat)
	slog.Info("category created", "classification", cat.ClassificationID, "id", cat.ID)
	return nil
}

// UpdateClassification rewrites a classification. On store success the
// cache entry is removed and the new value re-inserted; on failure the
// cache keeps the last-known-good value.
func (m *Manager) UpdateClassification(ctx context.Context, cls *models.Classification) error {
	if err := models.ValidateLabels(cls.Labels); err != nil {
		return err
	}
	if err := m.store.UpdateClassification(ctx, cls); err != nil {
		return err
	}
	m.cache.RemoveClassification(cls.ID)
	m.cache.PutClassification(cls)
	return nil
}

// UpdateCategory rewrites a category with the same cache discipline as
// UpdateClassification.
func (m *Manager) UpdateCategory(ctx context.Context, cat *models.Category) error {
	if err := models.ValidateLabels(cat.Labels); err != nil {
		return err
	}
	cat.Link.Normalize()
	if err := m.store.UpdateCategory(ctx, cat); err != nil {
		return err
	}
	m.cache.RemoveCategory(cat.ClassificationID, cat.ID)
	m.cache.PutCategory(cat)
	return nil
}

// DeleteClassification removes a classification. The cache entries go
// first, then the store row; a crash in between only costs a transient
// cache miss, which self-heals on the next read.
func (m *Manager) DeleteClassification(ctx context.Context, id string) error {
	m.cache.RemoveClassification(id)
	m.cache.RemoveClassificationCategories(id)
	if err := m.store.DeleteClassification(ctx, id); err != nil {
		return err
	}
	slog.Info("classification deleted", "id", id)
	return nil
}

// DeleteCategory removes a category, cache entry first.
func (m *Manager) DeleteCategory(ctx context.Context, classificationID, categoryID string) error {
	m.cache.RemoveCategory(classificationID, categoryID)
	if err := m.store.DeleteCategory(ctx, classificationID, categoryID); err != nil {
		return err
	}
	slog.Info("category deleted", "classification", classificationID, "id", categoryID)
	return nil
}

// LoadSnapshot fetches a full classification tree for snapshot editing.
// Bypasses the node caches: the editor must see the durable state, not
// whatever subset happens to be cached.
func (m *Manager) LoadSnapshot(ctx context.Context, classificationID string) (*models.Classification, error) {
	snap, err := m.store.LoadTree(ctx, classificationID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("classification %s: %w", classificationID, models.ErrNotFound)
	}
	return snap, nil
}

// ApplySnapshot writes an edited snapshot back atomically, then
// invalidates and repopulates the affected cache entries. A failed store
// write leaves both store and cache in their pre-edit state.
func (m *Manager) ApplySnapshot(ctx context.Context, snap *models.Classification) error {
	if err := m.store.ReplaceTree(ctx, snap); err != nil {
		return err
	}
	m.cache.RemoveClassification(snap.ID)
	m.cache.RemoveClassificationCategories(snap.ID)
	m.cache.PutClassification(&models.Classification{ID: snap.ID, Labels: snap.Labels})
	snap.Walk(func(c *models.Category) bool {
		// Cache individual nodes, not subtrees: children stay lazy.
		node := *c
		node.Children = nil
		m.cache.PutCategory(&node)
		return true
	})
	slog.Info("classification snapshot applied", "id", snap.ID)
	return nil
}

// MaxClassificationSuffix exposes the store's ID-sequence scan to the
// editor's allocator.
func (m *Manager) MaxClassificationSuffix(ctx context.Context, prefix string) (int, error) {
	return m.store.MaxClassificationSuffix(ctx, prefix)
}

// ClassificationExists reports whether a classification is stored.
func (m *Manager) ClassificationExists(ctx context.Context, id string) (bool, error) {
	return m.store.ClassificationExists(ctx, id)
}

// CountLinkedObjectsIn forwards the subtree reference count used by the
// recursive delete guard.
func (m *Manager) CountLinkedObjectsIn(ctx context.Context, classificationID string, categoryIDs []string) (int, error) {
	return m.store.CountLinkedObjectsIn(ctx, classificationID, categoryIDs)
}
