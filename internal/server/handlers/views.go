package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/rowsync/internal/rows"
	"github.com/iudanet/rowsync/internal/server/storage"
	"github.com/iudanet/rowsync/pkg/api"
)

// maxBodySize ограничивает размер тела запроса
const maxBodySize = 8 << 20

// ViewStorage определяет интерфейс для работы с view
type ViewStorage interface {
	Views(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, view string) ([]rows.Column, error)
	Query(ctx context.Context, q storage.Query) (*rows.RowSet, int, error)
	Apply(ctx context.Context, changes *rows.RowSet) (*rows.RowSet, error)
}

// ViewHandler обрабатывает запросы к наборам строк
type ViewHandler struct {
	logger  *slog.Logger
	storage ViewStorage
}

// NewViewHandler создает новый handler для view
func NewViewHandler(logger *slog.Logger, storage ViewStorage) *ViewHandler {
	return &ViewHandler{
		logger:  logger,
		storage: storage,
	}
}

// Register регистрирует маршруты handler в mux
func (h *ViewHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/views", h.Views)
	mux.HandleFunc("GET /api/v1/views/{view}/columns", h.Columns)
	mux.HandleFunc("POST /api/v1/query", h.Query)
	mux.HandleFunc("POST /api/v1/save", h.Save)
}

// Views обрабатывает GET /api/v1/views
func (h *ViewHandler) Views(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	names, err := h.storage.Views(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list views", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, api.ViewsResponse{Views: names}, http.StatusOK)
}

// Columns обрабатывает GET /api/v1/views/{view}/columns
func (h *ViewHandler) Columns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	view := r.PathValue("view")
	if view == "" {
		h.sendError(w, "view is required", http.StatusBadRequest)
		return
	}

	columns, err := h.storage.Columns(ctx, view)
	if err != nil {
		h.handleStorageError(ctx, w, err)
		return
	}

	resp := api.ColumnsResponse{
		View:    view,
		Columns: make([]api.ColumnInfo, 0, len(columns)),
	}
	for _, col := range columns {
		resp.Columns = append(resp.Columns, columnInfo(col))
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// Query обрабатывает POST /api/v1/query
func (h *ViewHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.QueryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode query request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.View == "" {
		h.sendError(w, "view is required", http.StatusBadRequest)
		return
	}
	if req.Offset < 0 || req.Limit < 0 {
		h.sendError(w, "offset and limit must not be negative", http.StatusBadRequest)
		return
	}

	rs, total, err := h.storage.Query(ctx, storage.Query{
		View:   req.View,
		Filter: req.Filter,
		Offset: req.Offset,
		Limit:  req.Limit,
	})
	if err != nil {
		h.handleStorageError(ctx, w, err)
		return
	}

	payload, err := rs.Serialize()
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to serialize row set", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "query completed",
		slog.String("view", req.View),
		slog.Int("total", total),
		slog.Int("returned", rs.NumberOfRows()))

	h.sendJSON(w, api.QueryResponse{RowSet: payload, Total: total}, http.StatusOK)
}

// Save обрабатывает POST /api/v1/save
// Принимает изменения клиента и возвращает актуальные строки для commit
func (h *ViewHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SaveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode save request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	changes, err := rows.RestoreRowSet(req.Changes)
	if err != nil {
		h.logger.WarnContext(ctx, "malformed change set", slog.Any("error", err))
		h.sendError(w, "malformed change set", http.StatusBadRequest)
		return
	}

	update, err := h.storage.Apply(ctx, changes)
	if err != nil {
		h.handleStorageError(ctx, w, err)
		return
	}

	payload, err := update.Serialize()
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to serialize update", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, api.SaveResponse{Update: payload}, http.StatusOK)
}

// handleStorageError переводит ошибки хранилища в HTTP статусы
func (h *ViewHandler) handleStorageError(ctx context.Context, w http.ResponseWriter, err error) {
	var conflict *storage.ConflictError

	switch {
	case errors.As(err, &conflict):
		h.logger.WarnContext(ctx, "version conflict", slog.Any("row_ids", conflict.RowIDs))
		h.sendJSON(w, api.ConflictResponse{
			Message: "rows were changed by another user",
			RowIDs:  conflict.RowIDs,
		}, http.StatusConflict)
	case errors.Is(err, storage.ErrViewNotFound):
		h.sendError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, storage.ErrInvalidFilter),
		errors.Is(err, storage.ErrUnknownColumn),
		errors.Is(err, storage.ErrReadOnlyColumn),
		errors.Is(err, storage.ErrInvalidRow):
		h.logger.WarnContext(ctx, "rejected request", slog.Any("error", err))
		h.sendError(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.ErrorContext(ctx, "storage error", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
	}
}

// sendJSON отправляет JSON ответ
func (h *ViewHandler) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h *ViewHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	h.sendJSON(w, resp, statusCode)
}

func columnInfo(col rows.Column) api.ColumnInfo {
	return api.ColumnInfo{
		ID:        col.ID,
		Label:     col.Label,
		Type:      string(col.Type),
		Precision: col.Precision,
		Scale:     col.Scale,
		Nullable:  col.Nullable,
		ReadOnly:  col.ReadOnly,
	}
}
