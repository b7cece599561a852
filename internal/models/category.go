// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Category is one node of a classification tree. Its ID is unique across
// the entire tree, not merely among siblings, and never equals the owning
// classification's ID. ParentID is nil iff the category sits directly
// under the classification root.
type Category struct {
	ID               string  `json:"id"`
	ClassificationID string  `json:"classification_id"`
	ParentID         *string `json:"parent_id"`
	Position         int     `json:"position"`
	Labels           []Label `json:"labels"`
	Link             *Link   `json:"link,omitempty"`

	// Virtual fields populated on demand by store and manager methods.
	LinkedObjects int         `json:"linked_objects"`
	HasChildren   bool        `json:"has_children"`
	Children      []*Category `json:"children,omitempty"`
}

// Clone returns a deep copy of the category and its loaded subtree.
// Snapshot editing works on clones so a failed write-back never leaks
// half-applied edits into cached nodes.
func (c *Category) Clone() *Category {
	if c == nil {
		return nil
	}
	out := *c
	out.Labels = cloneLabels(c.Labels)
	out.Link = c.Link.clone()
	if c.ParentID != nil {
		p := *c.ParentID
		out.ParentID = &p
	}
	if c.Children != nil {
		out.Children = make([]*Category, len(c.Children))
		for i, ch := range c.Children {
			out.Children[i] = ch.Clone()
		}
	}
	return &out
}

// Walk visits the category and every loaded descendant depth-first.
// Returning false from fn stops the walk.
func (c *Category) Walk(fn func(*Category) bool) bool {
	if c == nil {
		return true
	}
	if !fn(c) {
		return false
	}
	for _, ch := range c.Children {
		if !ch.Walk(fn) {
			return false
		}
	}
	return true
}
