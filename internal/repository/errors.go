package repository

import "errors"

var (
	// ErrDuplicate marks an insert or update rejected by a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrDuplicateCompletion marks a second completion for the same student and course.
	ErrDuplicateCompletion = errors.New("completion already recorded")
	// ErrReferenced marks a delete rejected by a foreign key.
	ErrReferenced = errors.New("record is referenced")
)
