// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Classification is the root of a taxonomy tree. It behaves like a
// category with no parent and no linked-object count of its own.
type Classification struct {
	ID     string  `json:"id"`
	Labels []Label `json:"labels"`

	// RootCategories is populated on demand; empty slice means "loaded,
	// no children", nil means "not yet loaded".
	RootCategories []*Category `json:"root_categories,omitempty"`
}

// Clone returns a deep copy of the classification and its loaded tree.
func (c *Classification) Clone() *Classification {
	if c == nil {
		return nil
	}
	out := *c
	out.Labels = cloneLabels(c.Labels)
	if c.RootCategories != nil {
		out.RootCategories = make([]*Category, len(c.RootCategories))
		for i, rc := range c.RootCategories {
			out.RootCategories[i] = rc.Clone()
		}
	}
	return &out
}

// Walk visits every loaded category of the tree depth-first.
func (c *Classification) Walk(fn func(*Category) bool) {
	for _, rc := range c.RootCategories {
		if !rc.Walk(fn) {
			return
		}
	}
}
