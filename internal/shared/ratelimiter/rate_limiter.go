// Package ratelimiter は外部サイトへのリクエスト頻度を制限します。
package ratelimiter

import (
	"context"
	"log/slog"
	"time"
)

// Limiter は、ダウンロードなどの操作の頻度を制限するインターフェースです。
type Limiter interface {
	// Wait は次の操作を実行してよくなるまで待機します。ctx がキャンセルされた場合はそのエラーを返します。
	Wait(ctx context.Context) error
}

// RateLimiter は interval ごとに limit 回まで操作を許可します。
type RateLimiter struct {
	limit     int           // interval あたりの上限
	interval  time.Duration // カウントをリセットする間隔
	count     int
	lastReset time.Time
}

var _ Limiter = (*RateLimiter)(nil)

// NewRateLimiter は新しい RateLimiter のインスタンスを生成します。
// limit が0以下の場合は制限しません。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
	}
}

// Wait はレートリミットの上限に達しているかを確認し、必要であれば待機します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rl.limit <= 0 {
		return nil
	}

	now := time.Now()
	// interval を過ぎたらカウントリセット
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}

	rl.count++
	if rl.count <= rl.limit {
		return nil
	}

	sleep := rl.interval - now.Sub(rl.lastReset)
	if sleep > 0 {
		slog.Info("rate limit reached, waiting", "limit", rl.limit, "wait", sleep)
		timer := time.NewTimer(sleep)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	rl.count = 1
	rl.lastReset = time.Now()
	return nil
}

// Unlimited は待機しない Limiter です。
type Unlimited struct{}

// Wait は ctx がキャンセルされていなければ即座に戻ります。
func (Unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}
