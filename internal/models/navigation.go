// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// ExpansionState tags a navigation line as a leaf, a collapsed subtree,
// or an expanded subtree.
type ExpansionState string

const (
	StateLeaf      ExpansionState = "leaf"
	StateCollapsed ExpansionState = "collapsed"
	StateExpanded  ExpansionState = "expanded"
)

// ViewMode selects how a browse session presents the tree: nested
// expand/collapse or flat breadcrumb-style drill-down.
type ViewMode string

const (
	ModeTree ViewMode = "tree"
	ModeFlat ViewMode = "flat"
)

// PositionTag marks a rendered line's position among same-level siblings.
// Used only for tree connector glyphs in the view layer.
type PositionTag string

const (
	PosFirst     PositionTag = "first"
	PosMiddle    PositionTag = "middle"
	PosLast      PositionTag = "last"
	PosFirstLast PositionTag = "firstlast"
)

// NavigationLine is one row of a browse-tree view. It lives only inside a
// browse session's NavigationTreeState and is never persisted to the
// classification store.
type NavigationLine struct {
	CategoryID    string         `json:"category_id"`
	Level         int            `json:"level"`
	State         ExpansionState `json:"state"`
	LinkedObjects int            `json:"linked_objects"`
}

// RenderedLine is a navigation line decorated with its structural
// position tag, as handed to the view layer.
type RenderedLine struct {
	NavigationLine
	Position PositionTag `json:"position"`
}
