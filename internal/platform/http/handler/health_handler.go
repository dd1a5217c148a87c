// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger は依存先の疎通を確認します。*sql.DB が満たします。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler は /healthz エンドポイントを処理します。
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler は HealthHandler を生成します。db が nil の場合は疎通確認を行いません。
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health は GET と HEAD の /healthz を処理します。DBに到達できなければ503を返します。
func (h *HealthHandler) Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	status, body := http.StatusOK, "ok"
	if h.db != nil {
		if err := h.db.PingContext(c.Request.Context()); err != nil {
			slog.Warn("health check: database unreachable", "error", err)
			status, body = http.StatusServiceUnavailable, "unavailable"
		}
	}

	if c.Request.Method == http.MethodHead {
		c.Status(status)
		return
	}
	c.JSON(status, gin.H{"status": body})
}
