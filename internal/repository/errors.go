package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrVersionConflict indicates an optimistic-concurrency check failed.
	ErrVersionConflict = errors.New("repository: version conflict")
)
