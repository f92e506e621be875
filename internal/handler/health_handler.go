package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/grocerstock/internal/database"
)

// ServiceName はヘルスチェックで返すサービス名。
const ServiceName = "grocerstock"

const healthPingTimeout = 2 * time.Second

// HealthHandler はヘルスチェックのHTTPハンドラー。
type HealthHandler struct {
	db  database.Pinger
	now func() time.Time
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(db database.Pinger) *HealthHandler {
	return &HealthHandler{
		db:  db,
		now: time.Now,
	}
}

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}

// Health はDB接続を確認し、稼働状態を返す。
// GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "healthy",
		Service:   ServiceName,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}

	if err := database.Ping(r.Context(), h.db, healthPingTimeout); err != nil {
		slog.Error("health check failed", slog.String("error", err.Error()))
		resp.Status = "unhealthy"
		resp.Error = "database unavailable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
