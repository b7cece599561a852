// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package browse implements the navigation-tree state machine behind the
// classification browse view. Each browsing session owns one State value
// that renders a subset of the tree as an ordered, leveled row list with
// expand/collapse and flat drill-down modes. States are kept in a
// session-keyed Valkey store and are never shared between sessions.
package browse

import (
	"context"
	"fmt"

	"taxotree/internal/models"
)

// TreeSource supplies child sets to the state machine. Served by the
// node arena in production (the manager satisfies it too); tests
// substitute a fixture.
type TreeSource interface {
	GetChildren(ctx context.Context, classificationID string, parentID *string) ([]*models.Category, error)
}

// State is the per-session navigation tree: the visible line list plus
// the view options. It is a plain JSON-serializable value so the session
// store can persist it between requests.
type State struct {
	ClassificationID string                  `json:"classification_id"`
	ViewMode         models.ViewMode         `json:"view_mode"`
	HideEmptyLeaves  bool                    `json:"hide_empty_leaves"`
	Lines            []models.NavigationLine `json:"lines"`
}

// Initialize builds a fresh state showing the classification's root
// children, one line per child at level 1.
func Initialize(ctx context.Context, src TreeSource, classificationID string) (*State, error) {
	children, err := src.GetChildren(ctx, classificationID, nil)
	if err != nil {
		return nil, err
	}
	st := &State{
		ClassificationID: classificationID,
		ViewMode:         models.ModeTree,
		Lines:            linesFor(children, 1),
	}
	return st, nil
}

// linesFor converts a child set into navigation lines at one level.
func linesFor(children []*models.Category, level int) []models.NavigationLine {
	lines := make([]models.NavigationLine, len(children))
	for i, c := range children {
		state := models.StateLeaf
		if c.HasChildren {
			state = models.StateCollapsed
		}
		lines[i] = models.NavigationLine{
			CategoryID:    c.ID,
			Level:         level,
			State:         state,
			LinkedObjects: c.LinkedObjects,
		}
	}
	return lines
}

// Toggle expands or collapses the given category's line. In flat mode it
// instead drills down: the whole line list is replaced by the target's
// children at level 0. Toggling a leaf is a no-op.
func (s *State) Toggle(ctx context.Context, src TreeSource, categoryID string) error {
	idx := s.find(categoryID)
	if idx < 0 {
		return fmt.Errorf("navigation line %s: %w", categoryID, models.ErrNotFound)
	}
	target := &s.Lines[idx]

	if s.ViewMode == models.ModeFlat {
		children, err := src.GetChildren(ctx, s.ClassificationID, &target.CategoryID)
		if err != nil {
			return err
		}
		s.Lines = linesFor(children, 0)
		return nil
	}

	switch target.State {
	case models.StateExpanded:
		s.collapse(idx)

	case models.StateCollapsed:
		children, err := src.GetChildren(ctx, s.ClassificationID, &target.CategoryID)
		if err != nil {
			return err
		}
		inserted := linesFor(children, target.Level+1)
		tail := make([]models.NavigationLine, len(s.Lines[idx+1:]))
		copy(tail, s.Lines[idx+1:])
		s.Lines = append(s.Lines[:idx+1], append(inserted, tail...)...)
		s.Lines[idx].State = models.StateExpanded
	}
	return nil
}

// collapse removes every line below idx whose level is strictly greater
// than the target's, stopping at the first line back at or above the
// target's level.
func (s *State) collapse(idx int) {
	level := s.Lines[idx].Level
	end := idx + 1
	for end < len(s.Lines) && s.Lines[end].Level > level {
		end++
	}
	s.Lines = append(s.Lines[:idx+1], s.Lines[end:]...)
	s.Lines[idx].State = models.StateCollapsed
}

// find returns the index of a category's line, or -1.
func (s *State) find(categoryID string) int {
	for i := range s.Lines {
		if s.Lines[i].CategoryID == categoryID {
			return i
		}
	}
	return -1
}

// Render produces the view rows: the hide-empty-leaves filter is applied
// here only (the backing line list is never filtered), and every row gets
// its structural position tag for tree connector glyphs.
func (s *State) Render() []models.RenderedLine {
	visible := s.Lines
	if s.HideEmptyLeaves {
		visible = make([]models.NavigationLine, 0, len(s.Lines))
		for _, l := range s.Lines {
			if l.State == models.StateLeaf && l.LinkedObjects == 0 {
				continue
			}
			visible = append(visible, l)
		}
	}

	out := make([]models.RenderedLine, len(visible))
	for i, l := range visible {
		out[i] = models.RenderedLine{
			NavigationLine: l,
			Position:       positionOf(visible, i),
		}
	}
	return out
}

// positionOf tags a line relative to its same-level sibling group: the
// run of same-level lines not interrupted by a shallower line.
func positionOf(lines []models.NavigationLine, idx int) models.PositionTag {
	level := lines[idx].Level

	hasPrev := false
	for i := idx - 1; i >= 0; i-- {
		if lines[i].Level < level {
			break
		}
		if lines[i].Level == level {
			hasPrev = true
			break
		}
	}

	hasNext := false
	for i := idx + 1; i < len(lines); i++ {
		if lines[i].Level < level {
			break
		}
		if lines[i].Level == level {
			hasNext = true
			break
		}
	}

	switch {
	case !hasPrev && !hasNext:
		return models.PosFirstLast
	case !hasPrev:
		return models.PosFirst
	case !hasNext:
		return models.PosLast
	default:
		return models.PosMiddle
	}
}
