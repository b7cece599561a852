// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"taxotree/internal/models"
)

const categoryColumns = `classification_id, id, parent_id, position, labels, link`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	var rawLabels, rawLink []byte
	err := scanner.Scan(
		&c.ClassificationID, &c.ID, &c.ParentID, &c.Position,
		&rawLabels, &rawLink,
	)
	if err != nil {
		return nil, err
	}
	if c.Labels, err = unmarshalLabels(rawLabels); err != nil {
		return nil, err
	}
	if c.Link, err = unmarshalLink(rawLink); err != nil {
		return nil, err
	}
	return &c, nil
}

// CategoryExists reports whether a category row exists.
func (s *CategoryStore) CategoryExists(ctx context.Context, classificationID, categoryID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM categories WHERE classification_id = $1 AND id = $2)
	`, classificationID, categoryID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("category exists: %w", err)
	}
	return exists, nil
}

// GetCategory retrieves a category by its composite key. Returns nil if
// not found.
func (s *CategoryStore) GetCategory(ctx context.Context, classificationID, categoryID string) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE classification_id = $1 AND id = $2
	`, classificationID, categoryID)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// Children returns the ordered child set of a parent category, or the
// root categories when parentID is nil. Each child's HasChildren flag is
// filled so browse views can tag leaves without further round-trips.
func (s *CategoryStore) Children(ctx context.Context, classificationID string, parentID *string) ([]*models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.classification_id, c.id, c.parent_id, c.position, c.labels, c.link,
		       EXISTS(SELECT 1 FROM categories g
		              WHERE g.classification_id = c.classification_id AND g.parent_id = c.id),
		       (SELECT COUNT(*) FROM linked_objects lo
		        WHERE lo.classification_id = c.classification_id AND lo.category_id = c.id)
		FROM categories c
		WHERE c.classification_id = $1 AND c.parent_id IS NOT DISTINCT FROM $2
		ORDER BY c.position, c.id
	`, classificationID, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var items []*models.Category
	for rows.Next() {
		var c models.Category
		var rawLabels, rawLink []byte
		err := rows.Scan(
			&c.ClassificationID, &c.ID, &c.ParentID, &c.Position,
			&rawLabels, &rawLink, &c.HasChildren, &c.LinkedObjects,
		)
		if err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		if c.Labels, err = unmarshalLabels(rawLabels); err != nil {
			return nil, err
		}
		if c.Link, err = unmarshalLink(rawLink); err != nil {
			return nil, err
		}
		items = append(items, &c)
	}
	return items, rows.Err()
}

// ChildCount returns how many direct children a parent has. Root-level
// count when parentID is nil.
func (s *CategoryStore) ChildCount(ctx context.Context, classificationID string, parentID *string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM categories
		WHERE classification_id = $1 AND parent_id IS NOT DISTINCT FROM $2
	`, classificationID, parentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("child count: %w", err)
	}
	return count, nil
}

// CreateCategory inserts a new category row.
func (s *CategoryStore) CreateCategory(ctx context.Context, c *models.Category) error {
	labels, err := marshalLabels(c.Labels)
	if err != nil {
		return err
	}
	link, err := marshalLink(c.Link)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO categories (classification_id, id, parent_id, position, labels, link)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ClassificationID, c.ID, c.ParentID, c.Position, labels, link)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// UpdateCategory rewrites an existing category row.
func (s *CategoryStore) UpdateCategory(ctx context.Context, c *models.Category) error {
	labels, err := marshalLabels(c.Labels)
	if err != nil {
		return err
	}
	link, err := marshalLink(c.Link)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE categories SET
			parent_id = $1, position = $2, labels = $3, link = $4, updated_at = NOW()
		WHERE classification_id = $5 AND id = $6
	`, c.ParentID, c.Position, labels, link, c.ClassificationID, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category row and its linked-object rows.
// Descendant rows are the caller's responsibility; the editor prunes
// whole subtrees through ReplaceTree instead.
func (s *CategoryStore) DeleteCategory(ctx context.Context, classificationID, categoryID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM linked_objects WHERE classification_id = $1 AND category_id = $2
	`, classificationID, categoryID); err != nil {
		return fmt.Errorf("delete category links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM categories WHERE classification_id = $1 AND id = $2
	`, classificationID, categoryID); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return tx.Commit()
}

// ReplaceTree atomically rewrites a classification's whole category set
// from an edited snapshot. Rows absent from the snapshot are deleted,
// the rest upserted with their snapshot positions. This is the editor's
// unit of atomic write-back.
func (s *CategoryStore) ReplaceTree(ctx context.Context, snap *models.Classification) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	labels, err := marshalLabels(snap.Labels)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE classifications SET labels = $1, updated_at = NOW() WHERE id = $2
	`, labels, snap.ID); err != nil {
		return fmt.Errorf("replace tree: update classification: %w", err)
	}

	// Collect surviving IDs, then drop everything else (and its links)
	// before upserting, so pruned subtrees disappear in the same tx.
	keep := []string{}
	snap.Walk(func(c *models.Category) bool {
		keep = append(keep, c.ID)
		return true
	})
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM linked_objects
		WHERE classification_id = $1 AND NOT (category_id = ANY($2))
	`, snap.ID, keep); err != nil {
		return fmt.Errorf("replace tree: prune links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM categories
		WHERE classification_id = $1 AND NOT (id = ANY($2))
	`, snap.ID, keep); err != nil {
		return fmt.Errorf("replace tree: prune categories: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO categories (classification_id, id, parent_id, position, labels, link)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (classification_id, id) DO UPDATE SET
			parent_id = EXCLUDED.parent_id,
			position = EXCLUDED.position,
			labels = EXCLUDED.labels,
			link = EXCLUDED.link,
			updated_at = NOW()
	`)
	if err != nil {
		return fmt.Errorf("replace tree: prepare upsert: %w", err)
	}
	defer stmt.Close()

	var upsert func(cats []*models.Category) error
	upsert = func(cats []*models.Category) error {
		for pos, c := range cats {
			catLabels, err := marshalLabels(c.Labels)
			if err != nil {
				return err
			}
			link, err := marshalLink(c.Link)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, c.ClassificationID, c.ID, c.ParentID, pos, catLabels, link); err != nil {
				return fmt.Errorf("replace tree: upsert category %s: %w", c.ID, err)
			}
			if err := upsert(c.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := upsert(snap.RootCategories); err != nil {
		return err
	}

	return tx.Commit()
}

// LoadTree fetches a classification and its entire category tree as one
// nested snapshot. The editor operates on this snapshot and writes it
// back through ReplaceTree.
func (s *CategoryStore) LoadTree(ctx context.Context, classificationID string) (*models.Classification, error) {
	cls, err := s.GetClassification(ctx, classificationID)
	if err != nil || cls == nil {
		return cls, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.classification_id, c.id, c.parent_id, c.position, c.labels, c.link,
		       (SELECT COUNT(*) FROM linked_objects lo
		        WHERE lo.classification_id = c.classification_id AND lo.category_id = c.id)
		FROM categories c
		WHERE c.classification_id = $1
		ORDER BY c.position, c.id
	`, classificationID)
	if err != nil {
		return nil, fmt.Errorf("load tree: %w", err)
	}
	defer rows.Close()

	var flat []*models.Category
	for rows.Next() {
		var c models.Category
		var rawLabels, rawLink []byte
		err := rows.Scan(
			&c.ClassificationID, &c.ID, &c.ParentID, &c.Position,
			&rawLabels, &rawLink, &c.LinkedObjects,
		)
		if err != nil {
			return nil, fmt.Errorf("scan tree row: %w", err)
		}
		if c.Labels, err = unmarshalLabels(rawLabels); err != nil {
			return nil, err
		}
		if c.Link, err = unmarshalLink(rawLink); err != nil {
			return nil, err
		}
		flat = append(flat, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cls.RootCategories = buildTree(flat, nil)
	return cls, nil
}

// buildTree recursively assembles a nested tree from a flat row list.
func buildTree(flat []*models.Category, parentID *string) []*models.Category {
	result := []*models.Category{}
	for _, c := range flat {
		if ptrEqual(c.ParentID, parentID) {
			c.Children = buildTree(flat, &c.ID)
			c.HasChildren = len(c.Children) > 0
			result = append(result, c)
		}
	}
	return result
}

// ptrEqual compares two *string for equality (both nil or same value).
func ptrEqual(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
