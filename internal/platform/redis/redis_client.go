// Package redis はランキングキャッシュ用のRedisクライアントを提供します。
package redis

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config はRedis接続設定を保持します。
type Config struct {
	Host     string
	Port     string
	Password string
}

// LoadConfig は環境変数からRedis接続設定を読み込みます。
func LoadConfig() Config {
	return Config{
		Host:     os.Getenv("REDIS_HOST"),
		Port:     os.Getenv("REDIS_PORT"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}
}

// Addr は host:port 形式のアドレスを返します。
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

// NewRedisClient は接続を確認したうえでクライアントを返します。
// 接続できない場合、呼び出し側はキャッシュなしで動作させます。
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	addr := cfg.Addr()
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       0,
	})

	// 接続確認
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("Redis connection failed", "address", addr, "error", err)
		_ = rdb.Close()
		return nil, err
	}

	slog.Info("Redis connection successful", "address", addr)
	return rdb, nil
}
