// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// DefaultLinkType is the link type applied when none is given.
const DefaultLinkType = "locator"

// Link is an optional external reference attached to a category.
// A category carries at most one link.
type Link struct {
	Type  string `json:"type"`
	Href  string `json:"href"`
	Title string `json:"title,omitempty"`
	Label string `json:"label,omitempty"`
}

// Normalize applies the default link type if none is set.
func (l *Link) Normalize() {
	if l != nil && l.Type == "" {
		l.Type = DefaultLinkType
	}
}

// clone returns an independent copy, or nil for a nil link.
func (l *Link) clone() *Link {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}
