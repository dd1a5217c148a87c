package router

import (
	equityhandler "equity_backend/internal/feature/equity/transport/handler"
	"equity_backend/internal/platform/http/handler"

	"github.com/gin-gonic/gin"
)

func NewRouter(health *handler.HealthHandler, gainers *equityhandler.GainersHandler) *gin.Engine {
	r := gin.Default()

	// 導通確認用
	r.GET("/healthz", health.Health)
	r.HEAD("/healthz", health.Health)

	// ランキング（読み取り専用のため認証なし）
	r.GET("/gainers", gainers.List)
	r.GET("/gainers/window", gainers.Window)
	r.GET("/gainers/dates", gainers.Dates)
	r.GET("/gainers.csv", gainers.CSV)

	return r
}
