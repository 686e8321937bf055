package memory

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/iudanet/rowsync/internal/filter"
	"github.com/iudanet/rowsync/internal/rows"
	"github.com/iudanet/rowsync/internal/server/storage"
	"github.com/iudanet/rowsync/internal/validation"
)

// view хранит строки одного view в порядке добавления
type view struct {
	name    string
	columns []rows.Column
	rows    []*rows.Row
	nextID  int64
}

// Storage represents in-memory view storage
type Storage struct {
	logger *slog.Logger
	views  map[string]*view
	mu     sync.RWMutex
}

var _ storage.ViewStorage = (*Storage)(nil)

// New creates a new in-memory storage
func New(logger *slog.Logger) *Storage {
	return &Storage{
		logger: logger,
		views:  make(map[string]*view),
	}
}

func viewKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Define создает или заменяет view. Имена view и колонок должны быть
// идентификаторами (см. validation). Идентификаторы строк должны быть
// положительными и уникальными, количество значений совпадать с колонками.
func (s *Storage) Define(name string, columns []rows.Column, data ...*rows.Row) error {
	if err := validation.ValidateViewName(name); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrInvalidRow, err)
	}
	if err := validation.ValidateColumns(columns); err != nil {
		return fmt.Errorf("%w: view %s: %w", storage.ErrInvalidRow, name, err)
	}

	v := &view{
		name:    name,
		columns: slices.Clone(columns),
		nextID:  1,
	}

	seen := make(map[int64]bool, len(data))
	for _, row := range data {
		if row.NumberOfCells() != len(columns) {
			return fmt.Errorf("%w: row %d has %d values, view %s has %d columns",
				storage.ErrInvalidRow, row.ID(), row.NumberOfCells(), name, len(columns))
		}
		if !rows.IsID(row.ID()) || seen[row.ID()] {
			return fmt.Errorf("%w: invalid or duplicate id %d in view %s", storage.ErrInvalidRow, row.ID(), name)
		}
		seen[row.ID()] = true

		v.rows = append(v.rows, row.Copy())
		if row.ID() >= v.nextID {
			v.nextID = row.ID() + 1
		}
	}

	s.mu.Lock()
	s.views[viewKey(name)] = v
	s.mu.Unlock()

	s.logger.Debug("View defined", "view", name, "columns", len(columns), "rows", len(data))
	return nil
}

// Views returns sorted names of defined views
func (s *Storage) Views(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.views))
	for _, v := range s.views {
		names = append(names, v.name)
	}
	slices.Sort(names)
	return names, nil
}

// Columns returns column definitions of the view
func (s *Storage) Columns(_ context.Context, name string) ([]rows.Column, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.views[viewKey(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrViewNotFound, name)
	}
	return slices.Clone(v.columns), nil
}

// Query returns copies of rows matching the filter
func (s *Storage) Query(_ context.Context, q storage.Query) (*rows.RowSet, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.views[viewKey(q.View)]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", storage.ErrViewNotFound, q.View)
	}

	f, err := filter.NewParser(v.columns, s.logger).ParseStrict(q.Filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", storage.ErrInvalidFilter, err)
	}

	var matched []*rows.Row
	for _, row := range v.rows {
		if f == nil || f.IsMatch(v.columns, row) {
			matched = append(matched, row)
		}
	}
	total := len(matched)

	offset := min(max(q.Offset, 0), total)
	end := total
	if q.Limit > 0 {
		end = min(offset+q.Limit, total)
	}

	page := rows.NewRowSet(v.name, v.columns...)
	for _, row := range matched[offset:end] {
		if err := page.AddRow(row); err != nil {
			return nil, 0, fmt.Errorf("failed to add row %d: %w", row.ID(), err)
		}
	}

	s.logger.Debug("View queried", "view", v.name, "filter", q.Filter, "total", total, "returned", page.NumberOfRows())
	return page.Clone(), total, nil
}

// Apply stores the change set. Nothing is changed if any row fails validation.
func (s *Storage) Apply(_ context.Context, changes *rows.RowSet) (*rows.RowSet, error) {
	if changes == nil {
		return nil, fmt.Errorf("%w: empty change set", storage.ErrInvalidRow)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.views[viewKey(changes.ViewName())]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrViewNotFound, changes.ViewName())
	}

	columns := changes.Columns()
	mapping, err := v.columnMapping(columns)
	if err != nil {
		return nil, err
	}

	if err := v.validate(changes, mapping); err != nil {
		return nil, err
	}

	result := rows.NewRowSet(v.name, columns...)
	var inserted, updated, deleted int

	for _, change := range changes.Rows() {
		var out *rows.Row

		switch change.State() {
		case rows.StateMarkedForDelete:
			if !change.IsNew() {
				v.remove(change.ID())
				deleted++
			}
			out = rows.NewRowFromValues(change.ID(), change.Version(), change.Values())
		case rows.StateMarkedForInsert:
			stored := v.insert(change, mapping)
			out = v.project(stored, mapping)
			out.SetID(change.ID())
			out.SetNewID(stored.ID())
			inserted++
		case rows.StateDirty:
			stored := v.update(change, mapping)
			out = v.project(stored, mapping)
			updated++
		default:
			out = v.project(v.find(change.ID()), mapping)
		}

		if err := result.AddRow(out); err != nil {
			return nil, fmt.Errorf("failed to build response row %d: %w", change.ID(), err)
		}
	}

	s.logger.Info("Changes applied",
		"view", v.name,
		"inserted", inserted,
		"updated", updated,
		"deleted", deleted)

	return result, nil
}

// columnMapping возвращает индекс колонки view для каждой колонки набора
func (v *view) columnMapping(columns []rows.Column) ([]int, error) {
	mapping := make([]int, len(columns))
	for i, col := range columns {
		idx := rows.ColumnIndex(v.columns, col.ID)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s.%s", storage.ErrUnknownColumn, v.name, col.ID)
		}
		mapping[i] = idx
	}
	return mapping, nil
}

// validate проверяет версии и права на изменение до применения изменений
func (v *view) validate(changes *rows.RowSet, mapping []int) error {
	var conflicts []int64

	for _, change := range changes.Rows() {
		if change.IsNew() {
			continue
		}

		stored := v.find(change.ID())
		if !rows.SameIDAndVersion(stored, change) {
			conflicts = append(conflicts, change.ID())
			continue
		}

		if change.State() == rows.StateDirty {
			for _, idx := range change.DirtyIndexes() {
				col := v.columns[mapping[idx]]
				if col.ReadOnly {
					return fmt.Errorf("%w: %s.%s", storage.ErrReadOnlyColumn, v.name, col.ID)
				}
			}
		}
	}

	if len(conflicts) > 0 {
		return &storage.ConflictError{RowIDs: conflicts}
	}
	return nil
}

func (v *view) find(id int64) *rows.Row {
	for _, row := range v.rows {
		if row.ID() == id {
			return row
		}
	}
	return nil
}

func (v *view) remove(id int64) {
	v.rows = slices.DeleteFunc(v.rows, func(row *rows.Row) bool {
		return row.ID() == id
	})
}

func (v *view) insert(change *rows.Row, mapping []int) *rows.Row {
	stored := rows.NewEmptyRow(len(v.columns))
	stored.SetID(v.nextID)
	stored.SetVersion(1)
	v.nextID++

	for i, idx := range mapping {
		if !v.columns[idx].ReadOnly {
			stored.SetValue(idx, change.Value(i))
		}
	}

	v.rows = append(v.rows, stored)
	return stored
}

// update применяет только измененные ячейки. Версия увеличивается,
// только если значения действительно изменились.
func (v *view) update(change *rows.Row, mapping []int) *rows.Row {
	stored := v.find(change.ID())
	before := stored.Copy()
	for _, i := range change.DirtyIndexes() {
		stored.SetValue(mapping[i], change.Value(i))
	}
	if !rows.RowsEqual(before, stored) {
		stored.SetVersion(stored.Version() + 1)
	}
	return stored
}

// project возвращает копию строки с колонками набора изменений
func (v *view) project(stored *rows.Row, mapping []int) *rows.Row {
	values := make([]*string, len(mapping))
	for i, idx := range mapping {
		values[i] = stored.Value(idx)
	}
	return rows.NewRowFromValues(stored.ID(), stored.Version(), values)
}
