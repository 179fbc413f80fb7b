package fx

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const cacheKeyPrefix = "fx:v1:"

// CachedProvider memoizes rates in Redis for ttl. Cache failures fall through
// to the wrapped provider.
type CachedProvider struct {
	next   Provider
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedProvider wraps next with a Redis cache. A nil client disables
// caching.
func NewCachedProvider(next Provider, cache *redis.Client, ttl time.Duration, logger *slog.Logger) Provider {
	if cache == nil || ttl <= 0 {
		return next
	}
	return &CachedProvider{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (p *CachedProvider) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if r, ok := identity(from, to); ok {
		return r, nil
	}
	key := cacheKeyPrefix + pairKey(from, to)

	cached, err := p.cache.Get(ctx, key).Result()
	switch {
	case err == nil:
		if rate, perr := decimal.NewFromString(cached); perr == nil && rate.IsPositive() {
			return rate, nil
		}
	case !errors.Is(err, redis.Nil):
		p.logger.Warn("fx.cache_read_failed", slog.String("key", key), slog.Any("error", err))
	}

	rate, err := p.next.Rate(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	if err := p.cache.Set(ctx, key, rate.String(), p.ttl).Err(); err != nil {
		p.logger.Warn("fx.cache_write_failed", slog.String("key", key), slog.Any("error", err))
	}
	return rate, nil
}
