// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"equity_backend/internal/feature/equity/domain/entity"
	"equity_backend/internal/feature/equity/usecase"
)

// CachingGainersRepository decorates an EquityRepository with Redis caching of ranking reads.
// Writes go straight to the underlying repository and invalidate the affected table's keys.
type CachingGainersRepository struct {
	inner     usecase.EquityRepository
	rdb       *redis.Client
	ttl       func() time.Duration
	namespace string
}

// defaultTTL is used when the configured TTL is not positive.
const defaultTTL = 5 * time.Minute

// CachingGainersRepository satisfies EquityRepository so it can stand in for the database repository.
var _ usecase.EquityRepository = (*CachingGainersRepository)(nil)

// NewCachingGainersRepository decorates an EquityRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "gainers".
func NewCachingGainersRepository(rdb *redis.Client, ttl time.Duration, inner usecase.EquityRepository, namespace string) *CachingGainersRepository {
	return NewCachingGainersRepositoryWithTTLFunc(rdb, func() time.Duration { return ttl }, inner, namespace)
}

// NewCachingGainersRepositoryWithTTLFunc is like NewCachingGainersRepository, but ttl is
// evaluated on every cache write so entries can expire at a fixed time of day.
// A nil ttl, or one that returns 0 or less, falls back to 5 minutes.
func NewCachingGainersRepositoryWithTTLFunc(rdb *redis.Client, ttl func() time.Duration, inner usecase.EquityRepository, namespace string) *CachingGainersRepository {
	if ttl == nil {
		ttl = func() time.Duration { return defaultTTL }
	}
	if namespace == "" {
		namespace = "gainers"
	}
	return &CachingGainersRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// expiration returns the TTL for an entry written now.
func (c *CachingGainersRepository) expiration() time.Duration {
	if d := c.ttl(); d > 0 {
		return d
	}
	return defaultTTL
}

// Reset recreates the table and invalidates its cache entries.
func (c *CachingGainersRepository) Reset(ctx context.Context, table string) error {
	if err := c.inner.Reset(ctx, table); err != nil {
		return err
	}
	c.invalidate(ctx, table)
	return nil
}

// ReplaceBatch loads equities and invalidates the table's cache entries.
func (c *CachingGainersRepository) ReplaceBatch(ctx context.Context, table string, equities []entity.Equity) error {
	if err := c.inner.ReplaceBatch(ctx, table, equities); err != nil {
		return err
	}
	if len(equities) == 0 {
		return nil
	}
	c.invalidate(ctx, table)
	return nil
}

// TopGainers returns the ranking for a table, checking cache first.
func (c *CachingGainersRepository) TopGainers(ctx context.Context, table string, day *time.Time, limit int) ([]entity.Gainer, error) {
	d := "all"
	if day != nil {
		d = day.Format("2006-01-02")
	}
	key := fmt.Sprintf("%s:top:%s:%d", c.tablePrefix(table), d, limit)
	return cached(ctx, c, key, func() ([]entity.Gainer, error) {
		return c.inner.TopGainers(ctx, table, day, limit)
	})
}

// TopGainersOverWindow returns the window ranking, checking cache first.
func (c *CachingGainersRepository) TopGainersOverWindow(ctx context.Context, seriesTable, latestTable string, limit int) ([]entity.Gainer, error) {
	key := fmt.Sprintf("%s:window:%s:%s:%d", c.namespace, safe(seriesTable), safe(latestTable), limit)
	return cached(ctx, c, key, func() ([]entity.Gainer, error) {
		return c.inner.TopGainersOverWindow(ctx, seriesTable, latestTable, limit)
	})
}

// TradeDates returns the loaded trade dates of a table, checking cache first.
func (c *CachingGainersRepository) TradeDates(ctx context.Context, table string) ([]time.Time, error) {
	key := c.tablePrefix(table) + ":dates"
	return cached(ctx, c, key, func() ([]time.Time, error) {
		return c.inner.TradeDates(ctx, table)
	})
}

// cached reads key from Redis, falling back to load and storing its result on a miss.
func cached[T any](ctx context.Context, c *CachingGainersRepository, key string, load func() ([]T, error)) ([]T, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return load()
	}

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []T
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := load()
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.expiration()).Err()
	}

	return out, nil
}

// invalidate drops the table's entries and every window ranking, which may read from any table.
func (c *CachingGainersRepository) invalidate(ctx context.Context, table string) {
	if c.rdb == nil {
		return
	}
	// Best effort: don't fail the write if cache deletion fails
	_ = c.deleteByPattern(ctx, c.tablePrefix(table)+":*")
	_ = c.deleteByPattern(ctx, c.namespace+":window:*")
}

// tablePrefix generates the key prefix shared by all entries of a table.
func (c *CachingGainersRepository) tablePrefix(table string) string {
	return fmt.Sprintf("%s:table:%s", c.namespace, safe(table))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingGainersRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "*", "_")
	return s
}
