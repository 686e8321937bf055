package storage

import (
	"context"

	"github.com/iudanet/rowsync/internal/rows"
)

//go:generate moq -out views_mock.go . ColumnStorage SnapshotStorage

// ColumnStorage defines interface for caching view columns
type ColumnStorage interface {
	// SaveColumns stores column definitions of the view
	SaveColumns(ctx context.Context, view string, columns []rows.Column) error

	// GetColumns returns cached column definitions
	// Returns ErrColumnsNotFound if view columns were never cached
	GetColumns(ctx context.Context, view string) ([]rows.Column, error)
}

// SnapshotStorage defines interface for keeping the working row set of a view.
// Snapshot keeps pending edits, so unsaved changes survive client restarts.
type SnapshotStorage interface {
	// SaveSnapshot stores the row set under its view name
	SaveSnapshot(ctx context.Context, rs *rows.RowSet) error

	// GetSnapshot restores the row set of the view
	// Returns ErrSnapshotNotFound if there is no snapshot
	GetSnapshot(ctx context.Context, view string) (*rows.RowSet, error)

	// DeleteSnapshot removes the snapshot, missing snapshot is not an error
	DeleteSnapshot(ctx context.Context, view string) error

	// ListSnapshots returns view names that have snapshots
	ListSnapshots(ctx context.Context) ([]string, error)
}
