package repository

import "errors"

// Sentinel errors shared by every backend.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrStale means a conditional write matched no row: the record is gone or no
	// longer in the expected state.
	ErrStale = errors.New("record changed concurrently")
)
