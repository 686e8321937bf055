package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iudanet/rowsync/internal/client/storage"
	"github.com/iudanet/rowsync/internal/filter"
	"github.com/iudanet/rowsync/internal/rows"
	"github.com/iudanet/rowsync/pkg/api"
)

//go:generate moq -out service_mock.go . Service

// ErrPendingChanges снимок view содержит несохраненные изменения
var ErrPendingChanges = errors.New("view has unsaved changes")

// APIClient определяет обращения к серверу, нужные сессии
type APIClient interface {
	Columns(ctx context.Context, view string) ([]rows.Column, error)
	Query(ctx context.Context, req api.QueryRequest) (*rows.RowSet, int, error)
	Save(ctx context.Context, changes *rows.RowSet) (*rows.RowSet, error)
}

// Service определяет интерфейс сессии редактирования view
type Service interface {
	// Columns возвращает колонки view из кэша или с сервера
	Columns(ctx context.Context, view string, refresh bool) ([]rows.Column, error)

	// Open загружает строки view с сервера и сохраняет их как рабочий снимок
	Open(ctx context.Context, view string, opts OpenOptions) (*OpenResult, error)

	// Load восстанавливает рабочий снимок view
	Load(ctx context.Context, view string) (*rows.RowSet, error)

	// Store сохраняет рабочий снимок вместе с несохраненными правками
	Store(ctx context.Context, rs *rows.RowSet) error

	// Save отправляет изменения на сервер и применяет ответ
	Save(ctx context.Context, rs *rows.RowSet) (*SaveResult, error)

	// Cancel отменяет локальные изменения
	Cancel(ctx context.Context, rs *rows.RowSet) error

	// Search отбирает строки снимка по выражению фильтра без обращения к серверу
	Search(ctx context.Context, rs *rows.RowSet, expression string) []*rows.Row
}

// OpenOptions параметры выборки строк
type OpenOptions struct {
	Search  string // условие поиска пользователя, объединяется с базовым фильтром через AND
	Offset  int
	Limit   int
	Discard bool // заменить снимок даже если в нем есть несохраненные изменения
}

// OpenResult результат выборки
type OpenResult struct {
	RowSet *rows.RowSet
	Filter string // условие, отправленное на сервер
	Total  int    // количество строк на сервере, удовлетворяющих условию
}

// SaveResult contains save operation results
type SaveResult struct {
	Inserted int // количество вставленных строк
	Updated  int // количество измененных строк
	Deleted  int // количество удаленных строк

	// Unconfirmed временные id новых строк, для которых сервер не вернул id.
	// Такие строки остаются в наборе как несохраненные.
	Unconfirmed []int64
}

// Empty сообщает, что сохранять было нечего
func (r *SaveResult) Empty() bool {
	return r.Inserted == 0 && r.Updated == 0 && r.Deleted == 0
}

type service struct {
	apiClient APIClient
	filters   storage.FilterStorage
	columns   storage.ColumnStorage
	snapshots storage.SnapshotStorage
	logger    *slog.Logger
}

// NewService creates a new session service
func NewService(
	apiClient APIClient,
	filters storage.FilterStorage,
	columns storage.ColumnStorage,
	snapshots storage.SnapshotStorage,
	logger *slog.Logger,
) Service {
	return &service{
		apiClient: apiClient,
		filters:   filters,
		columns:   columns,
		snapshots: snapshots,
		logger:    logger,
	}
}

func (s *service) Columns(ctx context.Context, view string, refresh bool) ([]rows.Column, error) {
	if !refresh {
		columns, err := s.columns.GetColumns(ctx, view)
		if err == nil {
			return columns, nil
		}
		if !errors.Is(err, storage.ErrColumnsNotFound) {
			return nil, fmt.Errorf("failed to get cached columns: %w", err)
		}
	}

	columns, err := s.apiClient.Columns(ctx, view)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch columns: %w", err)
	}

	if err := s.columns.SaveColumns(ctx, view, columns); err != nil {
		// кэш не обязателен, работаем дальше
		s.logger.Warn("Failed to cache columns", "view", view, "error", err)
	}

	return columns, nil
}

func (s *service) Open(ctx context.Context, view string, opts OpenOptions) (*OpenResult, error) {
	if !opts.Discard {
		current, err := s.snapshots.GetSnapshot(ctx, view)
		switch {
		case err == nil:
			if current.GetChanges() != nil {
				return nil, fmt.Errorf("%w: %s", ErrPendingChanges, view)
			}
		case !errors.Is(err, storage.ErrSnapshotNotFound):
			return nil, fmt.Errorf("failed to check snapshot: %w", err)
		}
	}

	expression, err := s.condition(ctx, view, opts.Search)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Opening view", "view", view, "filter", expression)

	rs, total, err := s.apiClient.Query(ctx, api.QueryRequest{
		View:   view,
		Filter: expression,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query view: %w", err)
	}

	if err := s.snapshots.SaveSnapshot(ctx, rs); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.logger.Info("View opened", "view", view, "rows", rs.NumberOfRows(), "total", total)

	return &OpenResult{RowSet: rs, Filter: expression, Total: total}, nil
}

// condition объединяет базовый фильтр view и условие поиска.
// Нераспознанные условия отбрасываются парсером с предупреждением.
func (s *service) condition(ctx context.Context, view, search string) (string, error) {
	base, err := s.filters.GetBaseFilter(ctx, view)
	if err != nil {
		return "", fmt.Errorf("failed to get base filter: %w", err)
	}
	if base == "" && search == "" {
		return "", nil
	}

	columns, err := s.Columns(ctx, view, false)
	if err != nil {
		return "", err
	}

	p := filter.NewParser(columns, s.logger)
	f := filter.And(p.Parse(base), p.Parse(search))
	if f == nil {
		return "", nil
	}
	return f.String(), nil
}

func (s *service) Load(ctx context.Context, view string) (*rows.RowSet, error) {
	rs, err := s.snapshots.GetSnapshot(ctx, view)
	if err != nil {
		return nil, fmt.Errorf("failed to load view %s: %w", view, err)
	}
	return rs, nil
}

func (s *service) Store(ctx context.Context, rs *rows.RowSet) error {
	if err := s.snapshots.SaveSnapshot(ctx, rs); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *service) Save(ctx context.Context, rs *rows.RowSet) (*SaveResult, error) {
	result := &SaveResult{}

	changes := rs.GetChanges()
	if changes == nil {
		s.logger.Debug("Nothing to save", "view", rs.ViewName())
		return result, nil
	}

	for _, row := range changes.Rows() {
		switch row.State() {
		case rows.StateMarkedForInsert:
			result.Inserted++
		case rows.StateMarkedForDelete:
			result.Deleted++
		case rows.StateDirty:
			result.Updated++
		}
	}

	s.logger.Info("Saving changes",
		"view", rs.ViewName(),
		"rows", rows.BuildIDList(rows.RowIDs(changes)...),
		"inserted", result.Inserted,
		"updated", result.Updated,
		"deleted", result.Deleted)

	update, err := s.apiClient.Save(ctx, changes)
	if err != nil {
		return nil, fmt.Errorf("failed to save changes: %w", err)
	}

	result.Unconfirmed = rs.Commit(update)
	if len(result.Unconfirmed) > 0 {
		s.logger.Warn("Server response has no id for new rows",
			"view", rs.ViewName(),
			"rows", result.Unconfirmed)
	}

	if err := s.snapshots.SaveSnapshot(ctx, rs); err != nil {
		return nil, fmt.Errorf("changes saved, but snapshot update failed: %w", err)
	}

	return result, nil
}

func (s *service) Cancel(ctx context.Context, rs *rows.RowSet) error {
	rs.Rollback()
	return s.Store(ctx, rs)
}

func (s *service) Search(_ context.Context, rs *rows.RowSet, expression string) []*rows.Row {
	p := filter.NewParser(rs.Columns(), s.logger)
	return filter.Apply(p.Parse(expression), rs)
}
