package storage

import (
	"context"

	"github.com/iudanet/rowsync/internal/rows"
)

// Query описывает выборку строк view
type Query struct {
	View   string
	Filter string // текстовое условие, пустое - без отбора
	Offset int
	Limit  int // 0 - без ограничения
}

// ViewStorage defines interface for view rows persistence
type ViewStorage interface {
	// Views returns sorted names of defined views
	Views(ctx context.Context) ([]string, error)

	// Columns returns column definitions of the view
	// Returns ErrViewNotFound if view doesn't exist
	Columns(ctx context.Context, view string) ([]rows.Column, error)

	// Query returns copies of rows matching the filter and total number of matches
	// Returns ErrInvalidFilter if filter can't be parsed
	Query(ctx context.Context, q Query) (*rows.RowSet, int, error)

	// Apply stores the change set produced by RowSet.GetChanges.
	// Versions of updated and deleted rows must match stored ones,
	// otherwise nothing is applied and *ConflictError is returned.
	// The result contains authoritative rows to be passed to RowSet.Commit.
	Apply(ctx context.Context, changes *rows.RowSet) (*rows.RowSet, error)
}
