package cache

import (
	"context"
	"fmt"
	"log/slog"

	"autoparts_quotes_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// InvalidationChannel carries cache-drop notices between processes.
const InvalidationChannel = "abbreviations:invalidate"

// Invalidator drops the cache locally and tells other processes to do the same.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// LocalInvalidator only drops this process's cache.
type LocalInvalidator struct {
	Cache *Cache
}

func (l LocalInvalidator) Invalidate(context.Context) {
	l.Cache.Invalidate()
}

// RedisInvalidator publishes invalidations over Redis pub/sub.
type RedisInvalidator struct {
	cache  *Cache
	client *redis.Client
	log    *logger.Logger
}

// NewRedisInvalidator connects to redisURL.
func NewRedisInvalidator(redisURL string, c *Cache, log *logger.Logger) (*RedisInvalidator, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisInvalidator{cache: c, client: redis.NewClient(opts), log: log}, nil
}

// Invalidate drops the local cache and broadcasts. A failed broadcast only
// leaves other processes stale until their TTL expires.
func (r *RedisInvalidator) Invalidate(ctx context.Context) {
	r.cache.Invalidate()
	if err := r.client.Publish(ctx, InvalidationChannel, "1").Err(); err != nil {
		r.log.Warn("abbreviation invalidation broadcast failed", slog.String("error", err.Error()))
	}
}

// Listen drops the local cache on every broadcast until ctx is done.
func (r *RedisInvalidator) Listen(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, InvalidationChannel)
	defer func() {
		_ = sub.Close()
	}()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", InvalidationChannel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			r.cache.Invalidate()
		}
	}
}

// Close releases the redis connection.
func (r *RedisInvalidator) Close() error {
	return r.client.Close()
}
