// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the classification engine. Callers match them with
// errors.Is; store-level failures are wrapped with fmt.Errorf("%w") and
// never mapped onto these.
var (
	// ErrNotFound is returned when a classification or category lookup misses.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when creating an entity whose ID is
	// already present in the store.
	ErrAlreadyExists = errors.New("identifier already in use")

	// ErrDuplicateID is returned when a new category's ID collides with any
	// other ID in the same classification tree, not just a sibling's.
	ErrDuplicateID = errors.New("duplicate category id in tree")

	// ErrNotEmpty is returned when a delete is blocked by linked objects.
	ErrNotEmpty = errors.New("still referenced by linked objects")

	// ErrIDAllocation is returned when no unique classification ID could be
	// produced from the project sequence.
	ErrIDAllocation = errors.New("could not allocate a unique id")

	// ErrDeleted is returned by any accessor called on a node after its
	// delete was accepted. Terminal; the node is never reusable.
	ErrDeleted = errors.New("object is deleted")
)

// NotEmptyError carries the number of linked objects that block a delete,
// so callers can report "cannot delete, N objects still reference this".
// It matches ErrNotEmpty under errors.Is.
type NotEmptyError struct {
	Count int
}

func (e *NotEmptyError) Error() string {
	return fmt.Sprintf("cannot delete, %d objects still reference this node", e.Count)
}

// Is makes errors.Is(err, ErrNotEmpty) succeed for NotEmptyError values.
func (e *NotEmptyError) Is(target error) bool {
	return target == ErrNotEmpty
}
