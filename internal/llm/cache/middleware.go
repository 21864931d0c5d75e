// Package cache provides Redis-based caching middleware for model
// responses. Caching is keyed by request idempotency key with a TTL,
// degrades gracefully when Redis is unavailable, and only ever stores
// successful responses.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/renoquote/renoquote/internal/llm/configuration"
	"github.com/renoquote/renoquote/internal/llm/transport"
)

const (
	// Redis connection defaults.
	defaultPoolSize   = 10
	connectionTimeout = 5 * time.Second

	keyPrefix = "renoquote:estimate:"
)

// cacheMiddleware implements Redis-backed caching for model responses.
// All operations are thread-safe. Redis failures result in graceful
// degradation with cache bypass.
type cacheMiddleware struct {
	client  *redis.Client
	ttl     time.Duration
	enabled bool

	logger *slog.Logger

	// Metrics counters accessed atomically.
	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

// NewMiddlewareWithRedis creates a caching middleware for model responses.
// If client is nil and caching is enabled, a new Redis client is created
// from cfg. Connection failures disable caching rather than failing the
// pipeline.
func NewMiddlewareWithRedis(ctx context.Context, cfg configuration.CacheConfig, client *redis.Client) (transport.Middleware, error) {
	if client == nil && cfg.Enabled {
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: defaultPoolSize,
		})

		timeoutCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
		defer cancel()

		if err := client.Ping(timeoutCtx).Err(); err != nil {
			slog.Warn("redis connection failed, response cache disabled", "error", err)
			cfg.Enabled = false
		}
	}

	cm := &cacheMiddleware{
		client:  client,
		ttl:     cfg.TTL,
		enabled: cfg.Enabled,
		logger:  slog.Default().With("component", "cache"),
	}

	return cm.middleware(), nil
}

func (c *cacheMiddleware) middleware() transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			if !c.enabled || req.IdempotencyKey == "" {
				return next.Handle(ctx, req)
			}

			key := keyPrefix + req.IdempotencyKey

			if cached, ok := c.lookup(ctx, key); ok {
				c.hits.Add(1)
				c.logger.Debug("cache hit", "key", key, "model", req.Model)
				return cached, nil
			}
			c.misses.Add(1)

			resp, err := next.Handle(ctx, req)
			if err != nil {
				return nil, err
			}

			c.store(ctx, key, resp)
			return resp, nil
		})
	}
}

// lookup fetches and decodes a cached response. Any Redis or decode error
// is treated as a miss.
func (c *cacheMiddleware) lookup(ctx context.Context, key string) (*transport.Response, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.errors.Add(1)
			c.logger.Warn("cache lookup failed", "key", key, "error", err)
		}
		return nil, false
	}

	var resp transport.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		c.errors.Add(1)
		c.logger.Warn("cache entry corrupt, ignoring", "key", key, "error", err)
		return nil, false
	}
	return &resp, true
}

// store writes a successful response with TTL. Failures are logged and
// swallowed: caching is strictly an optimization.
func (c *cacheMiddleware) store(ctx context.Context, key string, resp *transport.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		c.errors.Add(1)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.errors.Add(1)
		c.logger.Warn("cache store failed", "key", key, "error", err)
	}
}
