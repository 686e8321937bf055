package boltdb

import (
	"context"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	"github.com/iudanet/rowsync/internal/client/storage"
	"github.com/iudanet/rowsync/internal/rows"
)

// snapshotRecord запись снимка в bucket snapshots
type snapshotRecord struct {
	SavedAt time.Time `msgpack:"saved_at"`
	View    string    `msgpack:"view"`
	Payload string    `msgpack:"payload"` // RowSet.Serialize
}

// SaveColumns stores column definitions of the view
func (s *Storage) SaveColumns(ctx context.Context, view string, columns []rows.Column) error {
	data, err := msgpack.Marshal(columns)
	if err != nil {
		return fmt.Errorf("failed to marshal columns: %w", err)
	}

	return s.update(bucketColumns, func(b *bbolt.Bucket) error {
		if err := b.Put(viewKey(view), data); err != nil {
			return fmt.Errorf("failed to save columns: %w", err)
		}
		return nil
	})
}

// GetColumns returns cached column definitions
func (s *Storage) GetColumns(ctx context.Context, view string) ([]rows.Column, error) {
	var columns []rows.Column

	err := s.view(bucketColumns, func(b *bbolt.Bucket) error {
		data := b.Get(viewKey(view))
		if data == nil {
			return storage.ErrColumnsNotFound
		}
		if err := msgpack.Unmarshal(data, &columns); err != nil {
			return fmt.Errorf("failed to unmarshal columns: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return columns, nil
}

// SaveSnapshot stores the row set under its view name
func (s *Storage) SaveSnapshot(ctx context.Context, rs *rows.RowSet) error {
	payload, err := rs.Serialize()
	if err != nil {
		return fmt.Errorf("failed to serialize row set: %w", err)
	}

	data, err := msgpack.Marshal(&snapshotRecord{
		SavedAt: time.Now().UTC(),
		View:    rs.ViewName(),
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return s.update(bucketSnapshots, func(b *bbolt.Bucket) error {
		if err := b.Put(viewKey(rs.ViewName()), data); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
		return nil
	})
}

// GetSnapshot restores the row set of the view
func (s *Storage) GetSnapshot(ctx context.Context, view string) (*rows.RowSet, error) {
	var record snapshotRecord

	err := s.view(bucketSnapshots, func(b *bbolt.Bucket) error {
		data := b.Get(viewKey(view))
		if data == nil {
			return storage.ErrSnapshotNotFound
		}
		if err := msgpack.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rs, err := rows.RestoreRowSet(record.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to restore snapshot of %s: %w", view, err)
	}
	return rs, nil
}

// DeleteSnapshot removes the snapshot
func (s *Storage) DeleteSnapshot(ctx context.Context, view string) error {
	return s.update(bucketSnapshots, func(b *bbolt.Bucket) error {
		return b.Delete(viewKey(view))
	})
}

// ListSnapshots returns view names that have snapshots
func (s *Storage) ListSnapshots(ctx context.Context) ([]string, error) {
	var views []string

	err := s.view(bucketSnapshots, func(b *bbolt.Bucket) error {
		return b.ForEach(func(_, v []byte) error {
			var record snapshotRecord
			if err := msgpack.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("failed to unmarshal snapshot: %w", err)
			}
			views = append(views, record.View)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return views, nil
}
