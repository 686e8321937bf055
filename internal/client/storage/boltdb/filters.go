package boltdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/rowsync/internal/client/storage"
)

// filterKey составляет ключ view + 0x00 + имя фильтра
func filterKey(view, name string) []byte {
	key := append(viewKey(view), 0)
	return append(key, strings.ToLower(strings.TrimSpace(name))...)
}

// SaveFilter stores or replaces a named filter of the view
func (s *Storage) SaveFilter(ctx context.Context, filter *storage.SavedFilter) error {
	if filter.CreatedAt.IsZero() {
		filter.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(filter)
	if err != nil {
		return fmt.Errorf("failed to marshal filter: %w", err)
	}

	return s.update(bucketFilters, func(b *bbolt.Bucket) error {
		if err := b.Put(filterKey(filter.View, filter.Name), data); err != nil {
			return fmt.Errorf("failed to save filter: %w", err)
		}
		return nil
	})
}

// GetFilter retrieves a filter by view and name
func (s *Storage) GetFilter(ctx context.Context, view, name string) (*storage.SavedFilter, error) {
	var filter *storage.SavedFilter

	err := s.view(bucketFilters, func(b *bbolt.Bucket) error {
		data := b.Get(filterKey(view, name))
		if data == nil {
			return storage.ErrFilterNotFound
		}

		filter = &storage.SavedFilter{}
		if err := json.Unmarshal(data, filter); err != nil {
			return fmt.Errorf("failed to unmarshal filter: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return filter, nil
}

// ListFilters returns filters of the view sorted by name
func (s *Storage) ListFilters(ctx context.Context, view string) ([]*storage.SavedFilter, error) {
	var filters []*storage.SavedFilter
	prefix := append(viewKey(view), 0)

	err := s.view(bucketFilters, func(b *bbolt.Bucket) error {
		c := b.Cursor()
		// ключи упорядочены, поэтому фильтры одного view идут подряд
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			filter := &storage.SavedFilter{}
			if err := json.Unmarshal(v, filter); err != nil {
				return fmt.Errorf("failed to unmarshal filter: %w", err)
			}
			filters = append(filters, filter)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return filters, nil
}

// DeleteFilter removes a filter
func (s *Storage) DeleteFilter(ctx context.Context, view, name string) error {
	return s.update(bucketFilters, func(b *bbolt.Bucket) error {
		key := filterKey(view, name)
		if b.Get(key) == nil {
			return storage.ErrFilterNotFound
		}
		if err := b.Delete(key); err != nil {
			return fmt.Errorf("failed to delete filter: %w", err)
		}
		return nil
	})
}

// SetBaseFilter stores the filter applied to every query of the view
func (s *Storage) SetBaseFilter(ctx context.Context, view, expression string) error {
	return s.update(bucketBaseFilters, func(b *bbolt.Bucket) error {
		if strings.TrimSpace(expression) == "" {
			return b.Delete(viewKey(view))
		}
		if err := b.Put(viewKey(view), []byte(expression)); err != nil {
			return fmt.Errorf("failed to save base filter: %w", err)
		}
		return nil
	})
}

// GetBaseFilter returns the base filter of the view, empty if not set
func (s *Storage) GetBaseFilter(ctx context.Context, view string) (string, error) {
	var expression string

	err := s.view(bucketBaseFilters, func(b *bbolt.Bucket) error {
		expression = string(b.Get(viewKey(view)))
		return nil
	})
	if err != nil {
		return "", err
	}

	return expression, nil
}
