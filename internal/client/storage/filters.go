package storage

import (
	"context"
	"time"
)

//go:generate moq -out filters_mock.go . FilterStorage

// SavedFilter именованное условие отбора для view
type SavedFilter struct {
	CreatedAt  time.Time `json:"created_at"`
	View       string    `json:"view"`
	Name       string    `json:"name"`
	Expression string    `json:"expression"`
}

// FilterStorage defines interface for storing user filters
type FilterStorage interface {
	// SaveFilter stores or replaces a named filter of the view
	SaveFilter(ctx context.Context, filter *SavedFilter) error

	// GetFilter retrieves a filter by view and name
	// Returns ErrFilterNotFound if filter doesn't exist
	GetFilter(ctx context.Context, view, name string) (*SavedFilter, error)

	// ListFilters returns filters of the view sorted by name
	ListFilters(ctx context.Context, view string) ([]*SavedFilter, error)

	// DeleteFilter removes a filter
	// Returns ErrFilterNotFound if filter doesn't exist
	DeleteFilter(ctx context.Context, view, name string) error

	// SetBaseFilter stores the filter applied to every query of the view.
	// Empty expression removes it.
	SetBaseFilter(ctx context.Context, view, expression string) error

	// GetBaseFilter returns the base filter of the view, empty if not set
	GetBaseFilter(ctx context.Context, view string) (string, error)
}
