package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/iudanet/rowsync/pkg/api"
)

// ViewLister возвращает имена доступных view
type ViewLister interface {
	Views(ctx context.Context) ([]string, error)
}

// HealthHandler отвечает на проверки состояния и сообщает количество view
type HealthHandler struct {
	logger  *slog.Logger
	views   ViewLister
	version string
}

// NewHealthHandler создает handler проверки состояния
func NewHealthHandler(logger *slog.Logger, views ViewLister, version string) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		views:   views,
		version: version,
	}
}

// Register регистрирует GET /api/v1/health
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// Health возвращает 503, если хранилище view недоступно
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{Status: "ok", Version: h.version}
	status := http.StatusOK

	names, err := h.views.Views(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "view storage unavailable", slog.Any("error", err))
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	resp.Views = len(names)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
