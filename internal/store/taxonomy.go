// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store implements the durable CategoryStore over PostgreSQL.
// It is the only component that touches the database; the manager layers
// caching on top and converts row absence into domain errors.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"taxotree/internal/models"
)

// CategoryStore persists classifications, categories, and their
// linked-object references.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// DB exposes the underlying pool for test cleanup helpers.
func (s *CategoryStore) DB() *sql.DB {
	return s.db
}

// marshalLabels encodes a label list for the jsonb column.
func marshalLabels(labels []models.Label) ([]byte, error) {
	if labels == nil {
		labels = []models.Label{}
	}
	b, err := json.Marshal(labels)
	if err != nil {
		return nil, fmt.Errorf("marshal labels: %w", err)
	}
	return b, nil
}

// marshalLink encodes an optional link; nil maps to SQL NULL.
func marshalLink(link *models.Link) (any, error) {
	if link == nil {
		return nil, nil
	}
	b, err := json.Marshal(link)
	if err != nil {
		return nil, fmt.Errorf("marshal link: %w", err)
	}
	return b, nil
}

// unmarshalLabels decodes the jsonb labels column.
func unmarshalLabels(raw []byte) ([]models.Label, error) {
	var labels []models.Label
	if len(raw) == 0 {
		return labels, nil
	}
	if err := json.Unmarshal(raw, &labels); err != nil {
		return nil, fmt.Errorf("unmarshal labels: %w", err)
	}
	return labels, nil
}

// unmarshalLink decodes the nullable jsonb link column.
func unmarshalLink(raw []byte) (*models.Link, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var link models.Link
	if err := json.Unmarshal(raw, &link); err != nil {
		return nil, fmt.Errorf("unmarshal link: %w", err)
	}
	return &link, nil
}

// CountLinkedObjects returns the number of domain objects referencing a
// category, or referencing any category of the classification when
// categoryID is nil. Never cached; always a store round-trip.
func (s *CategoryStore) CountLinkedObjects(ctx context.Context, classificationID string, categoryID *string) (int, error) {
	var count int
	var err error
	if categoryID == nil {
		err = s.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM linked_objects WHERE classification_id = $1
		`, classificationID).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM linked_objects
			WHERE classification_id = $1 AND category_id = $2
		`, classificationID, *categoryID).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count linked objects: %w", err)
	}
	return count, nil
}

// CountLinkedObjectsIn returns the total linked-object count across a set
// of category IDs in one query. Used by the recursive delete guard.
func (s *CategoryStore) CountLinkedObjectsIn(ctx context.Context, classificationID string, categoryIDs []string) (int, error) {
	if len(categoryIDs) == 0 {
		return 0, nil
	}
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM linked_objects
		WHERE classification_id = $1 AND category_id = ANY($2)
	`, classificationID, categoryIDs).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count linked objects in subtree: %w", err)
	}
	return count, nil
}

// AddLinkedObject records that a domain object references a category.
// Used by the development seed and by tests; the real writers live in the
// repository subsystems that own those objects.
func (s *CategoryStore) AddLinkedObject(ctx context.Context, classificationID, categoryID string, objectID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO linked_objects (classification_id, category_id, object_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, classificationID, categoryID, objectID)
	if err != nil {
		return fmt.Errorf("add linked object: %w", err)
	}
	return nil
}

// RemoveLinkedObject drops a single object reference.
func (s *CategoryStore) RemoveLinkedObject(ctx context.Context, classificationID, categoryID string, objectID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM linked_objects
		WHERE classification_id = $1 AND category_id = $2 AND object_id = $3
	`, classificationID, categoryID, objectID)
	if err != nil {
		return fmt.Errorf("remove linked object: %w", err)
	}
	return nil
}
