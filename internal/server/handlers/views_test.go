package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/rowsync/internal/rows"
	"github.com/iudanet/rowsync/internal/server/storage"
	"github.com/iudanet/rowsync/internal/server/storage/memory"
	"github.com/iudanet/rowsync/pkg/api"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}
	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}

// mockViewStorage возвращает заданную ошибку из всех методов
type mockViewStorage struct {
	err error
}

func (m *mockViewStorage) Views(_ context.Context) ([]string, error) {
	return nil, m.err
}

func (m *mockViewStorage) Columns(_ context.Context, _ string) ([]rows.Column, error) {
	return nil, m.err
}

func (m *mockViewStorage) Query(_ context.Context, _ storage.Query) (*rows.RowSet, int, error) {
	return nil, 0, m.err
}

func (m *mockViewStorage) Apply(_ context.Context, _ *rows.RowSet) (*rows.RowSet, error) {
	return nil, m.err
}

func setupTestServer(t *testing.T) *http.ServeMux {
	t.Helper()

	s := memory.New(setupTestLogger())
	err := s.Define("Persons",
		[]rows.Column{
			rows.NewColumn("Name", rows.TypeString),
			rows.NewColumn("Age", rows.TypeInteger),
		},
		rows.NewRow(1, 1, "Alice", "30"),
		rows.NewRow(2, 1, "Bob", "40"),
	)
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewViewHandler(setupTestLogger(), s).Register(mux)
	return mux
}

func doJSON(t *testing.T, mux http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestViewHandler_Views(t *testing.T) {
	mux := setupTestServer(t)

	w := doJSON(t, mux, http.MethodGet, "/api/v1/views", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.ViewsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, []string{"Persons"}, resp.Views)
}

func TestViewHandler_Columns(t *testing.T) {
	mux := setupTestServer(t)

	w := doJSON(t, mux, http.MethodGet, "/api/v1/views/Persons/columns", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.ColumnsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Persons", resp.View)
	require.Len(t, resp.Columns, 2)
	assert.Equal(t, "Age", resp.Columns[1].ID)
	assert.Equal(t, "INTEGER", resp.Columns[1].Type)

	w = doJSON(t, mux, http.MethodGet, "/api/v1/views/missing/columns", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestViewHandler_Query(t *testing.T) {
	mux := setupTestServer(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantIDs    []int64
	}{
		{
			name:       "all rows",
			body:       api.QueryRequest{View: "Persons"},
			wantStatus: http.StatusOK,
			wantIDs:    []int64{1, 2},
		},
		{
			name:       "filtered",
			body:       api.QueryRequest{View: "Persons", Filter: "Age > 35"},
			wantStatus: http.StatusOK,
			wantIDs:    []int64{2},
		},
		{
			name:       "missing view name",
			body:       api.QueryRequest{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative limit",
			body:       api.QueryRequest{View: "Persons", Limit: -1},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid filter",
			body:       api.QueryRequest{View: "Persons", Filter: "Salary > 1"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown view",
			body:       api.QueryRequest{View: "missing"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid body",
			body:       "not an object",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, mux, http.MethodPost, "/api/v1/query", tt.body)
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp api.QueryResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			rs, err := rows.RestoreRowSet(resp.RowSet)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, rows.RowIDs(rs))
			assert.Equal(t, len(tt.wantIDs), resp.Total)
		})
	}
}

func TestViewHandler_Save(t *testing.T) {
	mux := setupTestServer(t)

	w := doJSON(t, mux, http.MethodPost, "/api/v1/query", api.QueryRequest{View: "Persons"})
	require.Equal(t, http.StatusOK, w.Code)
	var queryResp api.QueryResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&queryResp))

	rs, err := rows.RestoreRowSet(queryResp.RowSet)
	require.NoError(t, err)
	rs.Row(0).PreliminaryUpdate(1, "31")
	rs.AddEmptyRow().PreliminaryUpdate(0, "Carol")

	changes, err := rs.GetChanges().Serialize()
	require.NoError(t, err)

	w = doJSON(t, mux, http.MethodPost, "/api/v1/save", api.SaveRequest{Changes: changes})
	require.Equal(t, http.StatusOK, w.Code)

	var saveResp api.SaveResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&saveResp))
	update, err := rows.RestoreRowSet(saveResp.Update)
	require.NoError(t, err)

	rs.Commit(update)
	assert.Nil(t, rs.GetChanges())
	assert.Equal(t, []int64{1, 2, 3}, rows.RowIDs(rs))

	// повторная отправка тех же изменений конфликтует по версии
	w = doJSON(t, mux, http.MethodPost, "/api/v1/save", api.SaveRequest{Changes: changes})
	require.Equal(t, http.StatusConflict, w.Code)

	var conflict api.ConflictResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&conflict))
	assert.Equal(t, []int64{1}, conflict.RowIDs)
}

func TestViewHandler_Save_Malformed(t *testing.T) {
	mux := setupTestServer(t)

	w := doJSON(t, mux, http.MethodPost, "/api/v1/save", api.SaveRequest{Changes: "%%%"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "malformed change set", resp.Message)
}

func TestViewHandler_InternalError(t *testing.T) {
	mux := http.NewServeMux()
	NewViewHandler(setupTestLogger(), &mockViewStorage{err: errors.New("disk failure")}).Register(mux)

	w := doJSON(t, mux, http.MethodGet, "/api/v1/views", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = doJSON(t, mux, http.MethodPost, "/api/v1/query", api.QueryRequest{View: "v"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "internal server error", resp.Message)
}

func TestViewHandler_MethodNotAllowed(t *testing.T) {
	mux := setupTestServer(t)

	w := doJSON(t, mux, http.MethodGet, "/api/v1/query", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
