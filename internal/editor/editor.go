// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package editor implements the tree-mutation engine. All structural
// edits happen on a full classification snapshot and are written back in
// one atomic store transaction; a failed write-back leaves store and
// cache untouched and the edited snapshot is simply discarded.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"taxotree/internal/manager"
	"taxotree/internal/models"
)

// ErrInvalidMove is returned when a move has no legal target: up/down
// without the needed sibling, left at root level, right for a first
// child.
var ErrInvalidMove = errors.New("invalid move")

// Direction selects a structural move.
type Direction string

const (
	MoveUp    Direction = "up"
	MoveDown  Direction = "down"
	MoveLeft  Direction = "left"
	MoveRight Direction = "right"
)

// allocRetries bounds the ID-sequence allocator against concurrent
// creators racing for the same suffix.
const allocRetries = 10

// TreeEditor mutates classification trees through snapshots.
type TreeEditor struct {
	mgr      *manager.Manager
	idPrefix string
}

// New creates a TreeEditor. idPrefix scopes the classification ID
// sequence, e.g. "CLASS_" yields CLASS_0001, CLASS_0002, ...
func New(mgr *manager.Manager, idPrefix string) *TreeEditor {
	return &TreeEditor{mgr: mgr, idPrefix: idPrefix}
}

// Edit runs fn against a freshly loaded snapshot of the classification
// and writes the result back atomically, holding the classification's
// write lock for the whole load-edit-apply span. If fn returns an error
// nothing is written.
func (e *TreeEditor) Edit(ctx context.Context, classificationID string, fn func(snap *models.Classification) error) error {
	e.mgr.LockClassification(classificationID)
	defer e.mgr.UnlockClassification(classificationID)

	snap, err := e.mgr.LoadSnapshot(ctx, classificationID)
	if err != nil {
		return err
	}
	if err := fn(snap); err != nil {
		return err
	}
	return e.mgr.ApplySnapshot(ctx, snap)
}

// CreateCategory inserts a new category into the snapshot as the next
// sibling after afterSiblingID, or at the end of the root level when
// afterSiblingID is empty. The tree-wide ID uniqueness check is a hard
// precondition here, not an advisory log line.
func (e *TreeEditor) CreateCategory(snap *models.Classification, cat *models.Category, afterSiblingID string) error {
	if err := models.ValidateLabels(cat.Labels); err != nil {
		return err
	}
	cat.Link.Normalize()
	cat.ClassificationID = snap.ID

	if cat.ID == snap.ID {
		return fmt.Errorf("category id equals classification id %s: %w", snap.ID, models.ErrDuplicateID)
	}
	if containsID(snap, cat.ID) {
		return fmt.Errorf("category id %s: %w", cat.ID, models.ErrDuplicateID)
	}

	if afterSiblingID == "" {
		cat.ParentID = nil
		snap.RootCategories = append(snap.RootCategories, cat)
		return nil
	}

	loc := locate(snap, afterSiblingID)
	if loc == nil {
		return fmt.Errorf("sibling %s: %w", afterSiblingID, models.ErrNotFound)
	}
	cat.ParentID = loc.node.ParentID

	siblings := *loc.container
	siblings = append(siblings, nil)
	copy(siblings[loc.index+2:], siblings[loc.index+1:])
	siblings[loc.index+1] = cat
	*loc.container = siblings
	return nil
}

// ModifyCategory replaces a category's labels and link in place. The ID
// and children are untouched.
func (e *TreeEditor) ModifyCategory(snap *models.Classification, categoryID string, labels []models.Label, link *models.Link) error {
	if err := models.ValidateLabels(labels); err != nil {
		return err
	}
	link.Normalize()

	loc := locate(snap, categoryID)
	if loc == nil {
		return fmt.Errorf("category %s: %w", categoryID, models.ErrNotFound)
	}
	loc.node.Labels = labels
	loc.node.Link = link
	return nil
}

// MoveCategory restructures the snapshot around one category:
// up/down trade places with the previous/next sibling, left promotes the
// node to a sibling of its parent, right demotes it to the last child of
// its preceding sibling.
func (e *TreeEditor) MoveCategory(snap *models.Classification, categoryID string, dir Direction) error {
	loc := locate(snap, categoryID)
	if loc == nil {
		return fmt.Errorf("category %s: %w", categoryID, models.ErrNotFound)
	}
	siblings := *loc.container

	switch dir {
	case MoveUp:
		if loc.index == 0 {
			return fmt.Errorf("%s has no previous sibling: %w", categoryID, ErrInvalidMove)
		}
		siblings[loc.index-1], siblings[loc.index] = siblings[loc.index], siblings[loc.index-1]

	case MoveDown:
		if loc.index == len(siblings)-1 {
			return fmt.Errorf("%s has no next sibling: %w", categoryID, ErrInvalidMove)
		}
		siblings[loc.index], siblings[loc.index+1] = siblings[loc.index+1], siblings[loc.index]

	case MoveLeft:
		if loc.parent == nil {
			return fmt.Errorf("%s is already at root level: %w", categoryID, ErrInvalidMove)
		}
		// Detach, then re-insert right after the old parent.
		*loc.container = append(siblings[:loc.index], siblings[loc.index+1:]...)
		if len(*loc.container) == 0 {
			loc.parent.HasChildren = false
		}
		parentLoc := locate(snap, loc.parent.ID)
		if parentLoc == nil {
			return fmt.Errorf("parent %s: %w", loc.parent.ID, models.ErrNotFound)
		}
		loc.node.ParentID = parentLoc.node.ParentID
		upper := *parentLoc.container
		upper = append(upper, nil)
		copy(upper[parentLoc.index+2:], upper[parentLoc.index+1:])
		upper[parentLoc.index+1] = loc.node
		*parentLoc.container = upper

	case MoveRight:
		if loc.index == 0 {
			return fmt.Errorf("%s has no preceding sibling: %w", categoryID, ErrInvalidMove)
		}
		prev := siblings[loc.index-1]
		*loc.container = append(siblings[:loc.index], siblings[loc.index+1:]...)
		loc.node.ParentID = &prev.ID
		prev.Children = append(prev.Children, loc.node)
		prev.HasChildren = true

	default:
		return fmt.Errorf("direction %q: %w", dir, ErrInvalidMove)
	}
	return nil
}

// DeleteCategory prunes a category and its subtree from the snapshot.
// The guard is recursive: the linked-object count of the whole subtree
// is verified against the store in one query, so a reference anywhere
// below the node blocks the delete.
func (e *TreeEditor) DeleteCategory(ctx context.Context, snap *models.Classification, categoryID string) error {
	loc := locate(snap, categoryID)
	if loc == nil {
		return fmt.Errorf("category %s: %w", categoryID, models.ErrNotFound)
	}

	var subtree []string
	loc.node.Walk(func(c *models.Category) bool {
		subtree = append(subtree, c.ID)
		return true
	})
	count, err := e.mgr.CountLinkedObjectsIn(ctx, snap.ID, subtree)
	if err != nil {
		return err
	}
	if count > 0 {
		return &models.NotEmptyError{Count: count}
	}

	siblings := *loc.container
	*loc.container = append(siblings[:loc.index], siblings[loc.index+1:]...)
	return nil
}

// CreateClassification allocates the next ID from the project sequence
// and creates an otherwise empty classification.
func (e *TreeEditor) CreateClassification(ctx context.Context, labels []models.Label) (*models.Classification, error) {
	if err := models.ValidateLabels(labels); err != nil {
		return nil, err
	}

	suffix, err := e.mgr.MaxClassificationSuffix(ctx, e.idPrefix)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < allocRetries; attempt++ {
		id := fmt.Sprintf("%s%04d", e.idPrefix, suffix+1+attempt)
		cls := &models.Classification{ID: id, Labels: labels}
		err := e.mgr.CreateClassification(ctx, cls)
		if err == nil {
			return cls, nil
		}
		if errors.Is(err, models.ErrAlreadyExists) {
			continue // Another creator took this suffix; try the next.
		}
		return nil, err
	}
	return nil, fmt.Errorf("prefix %s: %w", e.idPrefix, models.ErrIDAllocation)
}

// DeleteClassification removes a whole classification. Blocked when any
// of its categories still has linked objects.
func (e *TreeEditor) DeleteClassification(ctx context.Context, id string) error {
	exists, err := e.mgr.ClassificationExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("classification %s: %w", id, models.ErrNotFound)
	}

	count, err := e.mgr.CountLinkedObjects(ctx, id, nil)
	if err != nil {
		return err
	}
	if count > 0 {
		return &models.NotEmptyError{Count: count}
	}

	e.mgr.LockClassification(id)
	defer e.mgr.UnlockClassification(id)

	if err := e.mgr.DeleteClassification(ctx, id); err != nil {
		return err
	}
	slog.Info("classification removed by editor", "id", id)
	return nil
}

// location pins a category inside a snapshot: the node itself, the slice
// holding its sibling list, its index there, and its parent (nil at root
// level).
type location struct {
	node      *models.Category
	container *[]*models.Category
	index     int
	parent    *models.Category
}

// locate finds a category by ID with a depth-first search over the whole
// snapshot. Returns nil when absent.
func locate(snap *models.Classification, categoryID string) *location {
	return locateIn(&snap.RootCategories, nil, categoryID)
}

func locateIn(container *[]*models.Category, parent *models.Category, categoryID string) *location {
	for i, c := range *container {
		if c.ID == categoryID {
			return &location{node: c, container: container, index: i, parent: parent}
		}
		if loc := locateIn(&c.Children, c, categoryID); loc != nil {
			return loc
		}
	}
	return nil
}

// containsID reports whether any category in the snapshot uses the ID.
func containsID(snap *models.Classification, id string) bool {
	found := false
	snap.Walk(func(c *models.Category) bool {
		if c.ID == id {
			found = true
			return false
		}
		return true
	})
	return found
}
