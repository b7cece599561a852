// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package tree is the in-memory classification tree model. Nodes live in
// an arena keyed by (classification, category) instead of holding raw
// parent/child object references, so invalidating a child list is just
// dropping the key's loaded-set. Children load lazily through the
// manager; once loaded they are authoritative until invalidated.
package tree

import (
	"context"
	"fmt"
	"sync"

	"taxotree/internal/manager"
	"taxotree/internal/models"
)

// nodeKey addresses a node in the arena. An empty CategoryID means the
// classification root itself.
type nodeKey struct {
	classificationID string
	categoryID       string
}

// Arena owns the node table for any number of classifications.
type Arena struct {
	mgr *manager.Manager

	mu    sync.Mutex
	nodes map[nodeKey]*Node
}

// NewArena creates an empty arena over the given manager.
func NewArena(mgr *manager.Manager) *Arena {
	return &Arena{mgr: mgr, nodes: make(map[nodeKey]*Node)}
}

// Node is one tree node: a classification root or a category. All access
// after Delete has been accepted fails with ErrDeleted.
type Node struct {
	arena *Arena
	key   nodeKey

	mu             sync.Mutex
	classification *models.Classification // set iff this is a root node
	category       *models.Category       // set iff this is a category
	childrenLoaded bool
	children       []*Node
	deleted        bool
}

// Classification returns (and tracks) the root node for a classification.
func (a *Arena) Classification(ctx context.Context, id string) (*Node, error) {
	key := nodeKey{classificationID: id}
	a.mu.Lock()
	if n, ok := a.nodes[key]; ok {
		a.mu.Unlock()
		return n, nil
	}
	a.mu.Unlock()

	cls, err := a.mgr.GetClassification(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.track(key, &Node{arena: a, key: key, classification: cls}), nil
}

// Category returns (and tracks) the node for one category.
func (a *Arena) Category(ctx context.Context, classificationID, categoryID string) (*Node, error) {
	key := nodeKey{classificationID, categoryID}
	a.mu.Lock()
	if n, ok := a.nodes[key]; ok {
		a.mu.Unlock()
		return n, nil
	}
	a.mu.Unlock()

	cat, err := a.mgr.GetCategory(ctx, classificationID, categoryID)
	if err != nil {
		return nil, err
	}
	return a.track(key, &Node{arena: a, key: key, category: cat}), nil
}

// track registers a node, returning an existing one on a key race.
func (a *Arena) track(key nodeKey, n *Node) *Node {
	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, ok := a.nodes[key]; ok {
		return existing
	}
	a.nodes[key] = n
	return n
}

// drop removes a node from the arena table.
func (a *Arena) drop(key nodeKey) {
	a.mu.Lock()
	delete(a.nodes, key)
	a.mu.Unlock()
}

// GetChildren serves child sets out of the arena: the browse layer's
// tree source. A nil parentID means the root level. Repeated expands of
// the same subtree hit the memoized child lists instead of the manager.
func (a *Arena) GetChildren(ctx context.Context, classificationID string, parentID *string) ([]*models.Category, error) {
	var n *Node
	var err error
	if parentID == nil {
		n, err = a.Classification(ctx, classificationID)
	} else {
		n, err = a.Category(ctx, classificationID, *parentID)
	}
	if err != nil {
		return nil, err
	}

	kids, err := n.Children(ctx)
	if err != nil {
		return nil, err
	}
	cats := make([]*models.Category, len(kids))
	for i, kid := range kids {
		cats[i] = kid.category
	}
	return cats, nil
}

// Invalidate forgets every node of one classification so the next
// traversal reloads it. Called after a tree edit rewrites the snapshot;
// node identity within the classification does not survive an edit.
func (a *Arena) Invalidate(classificationID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for key := range a.nodes {
		if key.classificationID == classificationID {
			delete(a.nodes, key)
		}
	}
}

// IsRoot reports whether the node is a classification root.
func (n *Node) IsRoot() bool {
	return n.classification != nil
}

// ID returns the node's own identifier.
func (n *Node) ID() (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.deleted {
		return "", n.deletedErr()
	}
	if n.classification != nil {
		return n.classification.ID, nil
	}
	return n.category.ID, nil
}

// Labels returns the node's label list.
func (n *Node) Labels() ([]models.Label, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.deleted {
		return nil, n.deletedErr()
	}
	if n.classification != nil {
		return n.classification.Labels, nil
	}
	return n.category.Labels, nil
}

// Link returns the category's optional link. Always nil for a root.
func (n *Node) Link() (*models.Link, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.deleted {
		return nil, n.deletedErr()
	}
	if n.category == nil {
		return nil, nil
	}
	return n.category.Link, nil
}

// LinkedObjects lazily computes the node's linked-object count. A root
// node has no count of its own and reports zero.
func (n *Node) LinkedObjects(ctx context.Context) (int, error) {
	n.mu.Lock()
	if n.deleted {
		n.mu.Unlock()
		return 0, n.deletedErr()
	}
	cat := n.category
	n.mu.Unlock()

	if cat == nil {
		return 0, nil
	}
	return n.arena.mgr.CountLinkedObjects(ctx, cat.ClassificationID, &cat.ID)
}

// Children returns the node's child nodes, loading them through the
// manager on first access and memoizing afterwards.
func (n *Node) Children(ctx context.Context) ([]*Node, error) {
	n.mu.Lock()
	if n.deleted {
		n.mu.Unlock()
		return nil, n.deletedErr()
	}
	if n.childrenLoaded {
		kids := n.children
		n.mu.Unlock()
		return kids, nil
	}
	n.mu.Unlock()

	var parentID *string
	if n.category != nil {
		parentID = &n.category.ID
	}
	cats, err := n.arena.mgr.GetChildren(ctx, n.key.classificationID, parentID)
	if err != nil {
		return nil, err
	}

	kids := make([]*Node, len(cats))
	for i, cat := range cats {
		key := nodeKey{cat.ClassificationID, cat.ID}
		kids[i] = n.arena.track(key, &Node{arena: n.arena, key: key, category: cat})
	}

	n.mu.Lock()
	n.childrenLoaded = true
	n.children = kids
	n.mu.Unlock()
	return kids, nil
}

// InvalidateChildren resets the child list to "not yet loaded". Called
// after structural changes so the next access refetches.
func (n *Node) InvalidateChildren() {
	n.mu.Lock()
	n.childrenLoaded = false
	n.children = nil
	n.mu.Unlock()
}

// Delete removes the node and everything below it: loaded children are
// deleted first (depth-first), then the node itself is marked deleted and
// removed from store and cache through the manager. The linked-object
// guard is the caller's job (the editor verifies the whole subtree before
// invoking delete); this method only cascades.
func (n *Node) Delete(ctx context.Context) error {
	n.mu.Lock()
	if n.deleted {
		n.mu.Unlock()
		return n.deletedErr()
	}
	kids := n.children
	n.mu.Unlock()

	for _, child := range kids {
		if err := child.Delete(ctx); err != nil {
			return err
		}
	}

	n.mu.Lock()
	n.deleted = true
	n.childrenLoaded = false
	n.children = nil
	n.mu.Unlock()

	n.arena.drop(n.key)
	if n.classification != nil {
		return n.arena.mgr.DeleteClassification(ctx, n.classification.ID)
	}
	return n.arena.mgr.DeleteCategory(ctx, n.category.ClassificationID, n.category.ID)
}

// deletedErr wraps ErrDeleted with the node's identity.
func (n *Node) deletedErr() error {
	if n.classification != nil {
		return fmt.Errorf("classification %s: %w", n.classification.ID, models.ErrDeleted)
	}
	return fmt.Errorf("category %s/%s: %w", n.category.ClassificationID, n.category.ID, models.ErrDeleted)
}
