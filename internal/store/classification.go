// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"taxotree/internal/models"
)

// ClassificationExists reports whether a classification row exists.
func (s *CategoryStore) ClassificationExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM classifications WHERE id = $1)
	`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("classification exists: %w", err)
	}
	return exists, nil
}

// GetClassification retrieves a classification by ID. Returns nil if not
// found. Root categories are not loaded here; they are fetched lazily
// through Children.
func (s *CategoryStore) GetClassification(ctx context.Context, id string) (*models.Classification, error) {
	var c models.Classification
	var rawLabels []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, labels FROM classifications WHERE id = $1
	`, id).Scan(&c.ID, &rawLabels)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get classification: %w", err)
	}
	if c.Labels, err = unmarshalLabels(rawLabels); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateClassification inserts a new classification row.
func (s *CategoryStore) CreateClassification(ctx context.Context, c *models.Classification) error {
	labels, err := marshalLabels(c.Labels)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO classifications (id, labels) VALUES ($1, $2)
	`, c.ID, labels); err != nil {
		return fmt.Errorf("create classification: %w", err)
	}
	return nil
}

// UpdateClassification rewrites a classification's labels.
func (s *CategoryStore) UpdateClassification(ctx context.Context, c *models.Classification) error {
	labels, err := marshalLabels(c.Labels)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `
		UPDATE classifications SET labels = $1, updated_at = NOW() WHERE id = $2
	`, labels, c.ID); err != nil {
		return fmt.Errorf("update classification: %w", err)
	}
	return nil
}

// DeleteClassification removes a classification and all of its categories
// and linked-object rows in one transaction.
func (s *CategoryStore) DeleteClassification(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM linked_objects WHERE classification_id = $1`, id); err != nil {
		return fmt.Errorf("delete classification links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE classification_id = $1`, id); err != nil {
		return fmt.Errorf("delete classification categories: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM classifications WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete classification: %w", err)
	}
	return tx.Commit()
}

// MaxClassificationSuffix returns the highest numeric suffix among
// classification IDs that start with the given prefix. Returns 0 when no
// such ID exists. Backs the sequence-based ID allocator.
func (s *CategoryStore) MaxClassificationSuffix(ctx context.Context, prefix string) (int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM classifications WHERE id LIKE $1 || '%'
	`, prefix)
	if err != nil {
		return 0, fmt.Errorf("max classification suffix: %w", err)
	}
	defer rows.Close()

	max := 0
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("scan classification id: %w", err)
		}
		n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
		if err != nil {
			continue // ID matches the prefix but not the numeric pattern.
		}
		if n > max {
			max = n
		}
	}
	return max, rows.Err()
}
