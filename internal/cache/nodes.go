// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// nodes.go provides the two bounded in-process caches the manager sits
// on: classifications by ID and categories by (classification, category)
// composite key. Both are LRU with a capacity fixed at construction.
// "Not found" results are never cached — a miss always costs a store
// round-trip.
package cache

import (
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"taxotree/internal/models"
)

// CategoryKey is the composite cache key for category nodes.
type CategoryKey struct {
	ClassificationID string
	CategoryID       string
}

// NodeCache holds the bounded classification and category caches.
// Safe for concurrent readers and writers.
type NodeCache struct {
	classifications *lru.Cache[string, *models.Classification]
	categories      *lru.Cache[CategoryKey, *models.Category]
}

// NewNodeCache creates a node cache with the given per-map capacities.
func NewNodeCache(classificationCap, categoryCap int) (*NodeCache, error) {
	cls, err := lru.New[string, *models.Classification](classificationCap)
	if err != nil {
		return nil, err
	}
	cats, err := lru.New[CategoryKey, *models.Category](categoryCap)
	if err != nil {
		return nil, err
	}
	return &NodeCache{classifications: cls, categories: cats}, nil
}

// GetClassification returns the cached classification for an ID, if any.
func (c *NodeCache) GetClassification(id string) (*models.Classification, bool) {
	return c.classifications.Get(id)
}

// PutClassification stores (or overwrites) a classification entry.
func (c *NodeCache) PutClassification(cls *models.Classification) {
	c.classifications.Add(cls.ID, cls)
	slog.Debug("classification cached", "id", cls.ID, "size", c.classifications.Len())
}

// RemoveClassification drops a classification entry.
func (c *NodeCache) RemoveClassification(id string) {
	c.classifications.Remove(id)
}

// GetCategory returns the cached category for a composite key, if any.
func (c *NodeCache) GetCategory(classificationID, categoryID string) (*models.Category, bool) {
	return c.categories.Get(CategoryKey{classificationID, categoryID})
}

// PutCategory stores (or overwrites) a category entry.
func (c *NodeCache) PutCategory(cat *models.Category) {
	c.categories.Add(CategoryKey{cat.ClassificationID, cat.ID}, cat)
}

// RemoveCategory drops a category entry.
func (c *NodeCache) RemoveCategory(classificationID, categoryID string) {
	c.categories.Remove(CategoryKey{classificationID, categoryID})
}

// RemoveClassificationCategories drops every category entry belonging to
// a classification. Used when a whole tree is rewritten or deleted.
func (c *NodeCache) RemoveClassificationCategories(classificationID string) {
	for _, key := range c.categories.Keys() {
		if key.ClassificationID == classificationID {
			c.categories.Remove(key)
		}
	}
	slog.Debug("classification categories evicted", "classification", classificationID)
}

// Len reports the current entry counts (classifications, categories).
func (c *NodeCache) Len() (int, int) {
	return c.classifications.Len(), c.categories.Len()
}
