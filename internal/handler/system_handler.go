package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/taskflow/internal/model"
)

// healthCheckTimeout はヘルスチェック時のストア疎通確認のタイムアウト。
const healthCheckTimeout = 2 * time.Second

// HealthChecker はストアの疎通確認インターフェース。
// *sql.DB と database.MongoPinger が満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// SystemHandler はヘルスチェックやルートバナーなど認証不要のエンドポイントを提供する。
type SystemHandler struct {
	checker HealthChecker
	version string
}

// NewSystemHandler はSystemHandlerを生成する。
func NewSystemHandler(checker HealthChecker, version string) *SystemHandler {
	return &SystemHandler{checker: checker, version: version}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Store     string    `json:"store"`
	Timestamp time.Time `json:"timestamp"`
}

// Health はプロセスとストアの状態を返す。ストアに到達できない場合は503を返す。
// GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Store: "ok", Timestamp: time.Now().UTC()}
	status := http.StatusOK

	if h.checker != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := h.checker.PingContext(ctx); err != nil {
			slog.Error("ストアへの疎通確認に失敗しました", slog.String("error", err.Error()))
			resp.Status = "degraded"
			resp.Store = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, envelope{Success: status == http.StatusOK, Data: resp})
}

type bannerResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// Root はサービス名とバージョンを返す。
// GET /
func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bannerResponse{Message: "TaskFlow API", Version: h.version})
}

// NotFound は未定義ルートへのアクセスに404を返す。
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeAPIErrorResponse(w, http.StatusNotFound, model.NewRouteNotFoundError())
}

// MethodNotAllowed は許可されていないメソッドに405を返す。
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeAPIErrorResponse(w, http.StatusMethodNotAllowed, model.NewMethodNotAllowedError())
}
