package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"equity_backend/internal/app/di"
	"equity_backend/internal/feature/equity/usecase"
	"equity_backend/internal/platform/db"
	"equity_backend/internal/platform/externalapi/nse"
	infraredis "equity_backend/internal/platform/redis"
	"equity_backend/internal/platform/report"
)

func main() {
	date := flag.String("date", "2022-12-09", "base trading day (YYYY-MM-DD)")
	lookback := flag.Int("lookback", 30, "calendar days to walk back from the base day")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall run timeout")
	flag.Parse()

	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	day, err := time.Parse("2006-01-02", *date)
	if err != nil {
		log.Fatalf("invalid -date %q: %v", *date, err)
	}
	if *lookback < 0 {
		log.Fatalf("invalid -lookback %d", *lookback)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	gdb, err := db.OpenDB(db.LoadConfigFromEnv())
	if err != nil {
		log.Fatal("failed to connect database: ", err)
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// Redis（任意）: ロード後にサーバー側のキャッシュを無効化する
	rdb, err := infraredis.NewRedisClient(ctx, infraredis.LoadConfig())
	if err != nil {
		slog.Warn("Redis unavailable. Running without cache invalidation.")
		rdb = nil
	} else {
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	srcCfg := nse.LoadConfig()
	cfg := usecase.LoadConfig()
	uc := usecase.NewIngestUsecase(
		di.NewSource(srcCfg),
		di.NewEquityRepository(rdb, gdb),
		report.NewCSVWriter(cfg.ReportDir),
		di.NewLimiter(srcCfg),
		cfg,
	)

	if err := uc.Run(ctx, usecase.RunOptions{Date: day, LookbackDays: *lookback}); err != nil {
		log.Fatal(err)
	}
	slog.Info("ingest ok", "date", *date, "lookback_days", *lookback, "report_dir", cfg.ReportDir)
}
