package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/rowsync/internal/rows"
	"github.com/iudanet/rowsync/pkg/api"
)

// DefaultTimeout таймаут HTTP запросов по умолчанию
const DefaultTimeout = 30 * time.Second

var (
	// ErrVersionConflict сервер отклонил изменения: строки изменены другим пользователем
	ErrVersionConflict = errors.New("version conflict")

	// ErrNotFound view не найден на сервере
	ErrNotFound = errors.New("not found")
)

// ConflictError содержит идентификаторы строк с устаревшей версией
type ConflictError struct {
	Message string
	RowIDs  []int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: rows %s", ErrVersionConflict, rows.BuildIDList(e.RowIDs...))
}

// Is позволяет проверять ошибку через errors.Is(err, ErrVersionConflict)
func (e *ConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}

// StatusError ответ сервера с неуспешным статусом
type StatusError struct {
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Is сопоставляет 404 с ErrNotFound
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый API клиент. timeout <= 0 означает DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
	}
}

// Health проверяет доступность сервера
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil, &resp); err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	return &resp, nil
}

// Views возвращает имена доступных view
func (c *Client) Views(ctx context.Context) ([]string, error) {
	var resp api.ViewsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/views", nil, &resp); err != nil {
		return nil, fmt.Errorf("views request failed: %w", err)
	}
	return resp.Views, nil
}

// Columns возвращает описания колонок view
func (c *Client) Columns(ctx context.Context, view string) ([]rows.Column, error) {
	var resp api.ColumnsResponse
	path := fmt.Sprintf("/api/v1/views/%s/columns", url.PathEscape(view))
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("columns request failed: %w", err)
	}

	columns := make([]rows.Column, 0, len(resp.Columns))
	for _, info := range resp.Columns {
		typ, err := rows.ParseValueType(info.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", info.ID, err)
		}
		columns = append(columns, rows.Column{
			ID:        info.ID,
			Label:     info.Label,
			Type:      typ,
			Precision: info.Precision,
			Scale:     info.Scale,
			Nullable:  info.Nullable,
			ReadOnly:  info.ReadOnly,
		})
	}
	return columns, nil
}

// Query выбирает строки view. Возвращает набор строк и общее количество
// строк, удовлетворяющих условию.
func (c *Client) Query(ctx context.Context, req api.QueryRequest) (*rows.RowSet, int, error) {
	var resp api.QueryResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/query", req, &resp); err != nil {
		return nil, 0, fmt.Errorf("query request failed: %w", err)
	}

	rs, err := rows.RestoreRowSet(resp.RowSet)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to restore row set: %w", err)
	}
	return rs, resp.Total, nil
}

// Save отправляет изменения и возвращает актуальные строки для RowSet.Commit
func (c *Client) Save(ctx context.Context, changes *rows.RowSet) (*rows.RowSet, error) {
	payload, err := changes.Serialize()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize changes: %w", err)
	}

	var resp api.SaveResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/save", api.SaveRequest{Changes: payload}, &resp); err != nil {
		return nil, fmt.Errorf("save request failed: %w", err)
	}

	update, err := rows.RestoreRowSet(resp.Update)
	if err != nil {
		return nil, fmt.Errorf("failed to restore update: %w", err)
	}
	return update, nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusConflict {
		var conflict api.ConflictResponse
		if err := json.Unmarshal(respBody, &conflict); err != nil {
			return fmt.Errorf("%w: %s", ErrVersionConflict, string(respBody))
		}
		return &ConflictError{Message: conflict.Message, RowIDs: conflict.RowIDs}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
			return &StatusError{StatusCode: resp.StatusCode, Message: errResp.Message}
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
