// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"equity_backend/internal/feature/equity/adapters"
	"equity_backend/internal/feature/equity/usecase"
	"equity_backend/internal/platform/cache"
	"equity_backend/internal/platform/externalapi/nse"
	infrahttp "equity_backend/internal/platform/http"
	"equity_backend/internal/shared/ratelimiter"
)

// NewSource creates a fully configured NSE archive client with HTTP client.
func NewSource(cfg nse.Config) *nse.Archive {
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout, cfg.UserAgent)
	return nse.NewArchive(cfg, httpClient)
}

// NewLimiter paces archive downloads to cfg.RequestsPerMinute.
// A non-positive rate disables pacing.
func NewLimiter(cfg nse.Config) ratelimiter.Limiter {
	if cfg.RequestsPerMinute <= 0 {
		return ratelimiter.Unlimited{}
	}
	return ratelimiter.NewRateLimiter(cfg.RequestsPerMinute, time.Minute)
}

// NewEquityRepository creates an EquityRepository implementation.
// If Redis is available, ranking reads are cached until the next bhavcopy is published.
// Otherwise, it returns the database repository directly.
func NewEquityRepository(rdb *redis.Client, db *gorm.DB) usecase.EquityRepository {
	repo := adapters.NewEquityRepository(db)
	if rdb == nil {
		return repo
	}
	return cache.NewCachingGainersRepositoryWithTTLFunc(rdb, cache.TimeUntilNextBhavcopy, repo, "gainers")
}
