package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/omerdikyol/api-for-travel-company/internal/infrastructure/redis"
	"github.com/omerdikyol/api-for-travel-company/internal/observability/metrics"
	"github.com/omerdikyol/api-for-travel-company/internal/reliability/circuitbreaker"
	"github.com/omerdikyol/api-for-travel-company/pkg/cache"
)

const searchKeyPrefix = "search:"

// SearchCache caches serialized search pages. Entries are short-lived and
// every entry is dropped when a booking commits, so the cache can only
// serve results at least as fresh as the last write.
type SearchCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	InvalidateAll(ctx context.Context)
}

// RedisSearchCache caches search pages in Redis behind a circuit breaker:
// a down Redis degrades search to direct storage reads instead of adding
// a timeout to every request.
type RedisSearchCache struct {
	client  *redis.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewRedisSearchCache creates a Redis-backed search cache
func NewRedisSearchCache(client *redis.Client, logger *slog.Logger) *RedisSearchCache {
	if logger == nil {
		logger = slog.Default()
	}

	breaker := circuitbreaker.New(5, 2, 30*time.Second)
	breaker.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Warn("search cache circuit state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	return &RedisSearchCache{client: client, breaker: breaker, logger: logger}
}

func (c *RedisSearchCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.breaker.Allow() {
		return nil, false
	}
	val, err := c.client.Get(ctx, key)
	if err != nil {
		if redis.IsMiss(err) {
			c.breaker.RecordSuccess()
		} else {
			c.breaker.RecordFailure()
		}
		return nil, false
	}
	c.breaker.RecordSuccess()
	return []byte(val), true
}

func (c *RedisSearchCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !c.breaker.Allow() {
		return
	}
	if err := c.client.Set(ctx, key, value, ttl); err != nil {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

func (c *RedisSearchCache) InvalidateAll(ctx context.Context) {
	if !c.breaker.Allow() {
		return
	}
	if err := c.client.DeletePattern(ctx, searchKeyPrefix+"*"); err != nil {
		c.logger.Warn("failed to invalidate search cache", slog.String("error", err.Error()))
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

// LocalSearchCache is the in-process fallback used when no Redis is
// configured.
type LocalSearchCache struct {
	cache *cache.Cache
}

// NewLocalSearchCache creates an in-process search cache
func NewLocalSearchCache() *LocalSearchCache {
	return &LocalSearchCache{cache: cache.New()}
}

func (c *LocalSearchCache) Get(_ context.Context, key string) ([]byte, bool) {
	return c.cache.Get(key)
}

func (c *LocalSearchCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	c.cache.Set(key, value, ttl)
}

func (c *LocalSearchCache) InvalidateAll(_ context.Context) {
	c.cache.Invalidate(searchKeyPrefix)
}

// observeLookup funnels cache outcomes into one metric
func observeLookup(hit bool) {
	if hit {
		metrics.ObserveSearchCache("hit")
	} else {
		metrics.ObserveSearchCache("miss")
	}
}
