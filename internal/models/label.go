// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the domain types of the classification engine:
// labels, links, categories, classifications, and the navigation-line
// types used by the browse view. All types here are plain values; they
// are mutated only through the manager and editor entry points.
package models

import "fmt"

// Label is a localized display text for a tree node. A node carries at
// most one label per language.
type Label struct {
	Lang        string `json:"lang"`
	Text        string `json:"text"`
	Description string `json:"description,omitempty"`
}

// ValidateLabels checks that every label has a language and that no two
// labels share one. The one-label-per-language rule was only advisory in
// older deployments; here it is a hard precondition on create and modify.
func ValidateLabels(labels []Label) error {
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if l.Lang == "" {
			return fmt.Errorf("label %q has no language", l.Text)
		}
		if seen[l.Lang] {
			return fmt.Errorf("duplicate label language %q", l.Lang)
		}
		seen[l.Lang] = true
	}
	return nil
}

// cloneLabels returns an independent copy of a label list.
func cloneLabels(labels []Label) []Label {
	if labels == nil {
		return nil
	}
	out := make([]Label, len(labels))
	copy(out, labels)
	return out
}
