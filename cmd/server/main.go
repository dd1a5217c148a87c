package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"equity_backend/internal/app/di"
	"equity_backend/internal/app/router"
	equityhandler "equity_backend/internal/feature/equity/transport/handler"
	"equity_backend/internal/feature/equity/usecase"
	"equity_backend/internal/platform/db"
	"equity_backend/internal/platform/http/handler"
	infraredis "equity_backend/internal/platform/redis"
)

func main() {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	// db
	gdb, err := db.OpenDB(db.LoadConfigFromEnv())
	if err != nil {
		log.Fatal("failed to connect database: ", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// Redis
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(context.Background(), infraredis.LoadConfig()); err != nil {
		slog.Warn("Redis unavailable. Running without cache.")
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	// Repository（Redisキャッシュでラップ）
	repo := di.NewEquityRepository(rdb, gdb)

	// Usecase
	reportUC := usecase.NewReportUsecase(repo, usecase.LoadConfig())

	// Handler
	healthH := handler.NewHealthHandler(sqlDB)
	gainersH := equityhandler.NewGainersHandler(reportUC)

	// ルータ生成
	r := router.NewRouter(healthH, gainersH)

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
}
