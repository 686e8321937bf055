package storage

import "errors"

// Common client storage errors
var (
	// ErrFilterNotFound indicates that saved filter was not found
	ErrFilterNotFound = errors.New("filter not found")

	// ErrColumnsNotFound indicates that view columns are not cached
	ErrColumnsNotFound = errors.New("columns not found")

	// ErrSnapshotNotFound indicates that no local snapshot exists for the view
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
