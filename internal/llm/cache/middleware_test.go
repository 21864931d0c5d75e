package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renoquote/renoquote/internal/llm/configuration"
	"github.com/renoquote/renoquote/internal/llm/transport"
)

type countingHandler struct {
	calls int
	resp  *transport.Response
	err   error
}

func (h *countingHandler) Handle(_ context.Context, _ *transport.Request) (*transport.Response, error) {
	h.calls++
	return h.resp, h.err
}

func TestCacheMiddleware_DisabledPassesThrough(t *testing.T) {
	mw, err := NewMiddlewareWithRedis(context.Background(),
		configuration.CacheConfig{Enabled: false, TTL: time.Hour}, nil)
	require.NoError(t, err)

	h := &countingHandler{resp: &transport.Response{Content: "ok", StatusCode: 200}}
	wrapped := mw(h)

	for i := 0; i < 3; i++ {
		resp, err := wrapped.Handle(context.Background(), &transport.Request{
			Model:          "gemini-1.5-pro",
			IdempotencyKey: "key-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Content)
	}

	// Disabled cache never short-circuits.
	assert.Equal(t, 3, h.calls)
}

func TestCacheMiddleware_UnreachableRedisDegradesGracefully(t *testing.T) {
	// No Redis listening here; construction must still succeed with
	// caching silently disabled.
	mw, err := NewMiddlewareWithRedis(context.Background(), configuration.CacheConfig{
		Enabled:   true,
		TTL:       time.Hour,
		RedisAddr: "127.0.0.1:1", // nothing listens on port 1
	}, nil)
	require.NoError(t, err)

	h := &countingHandler{resp: &transport.Response{Content: "ok", StatusCode: 200}}
	resp, err := mw(h).Handle(context.Background(), &transport.Request{
		Model:          "gemini-1.5-pro",
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 1, h.calls)
}

func TestCacheMiddleware_EmptyIdempotencyKeySkipsCache(t *testing.T) {
	mw, err := NewMiddlewareWithRedis(context.Background(),
		configuration.CacheConfig{Enabled: false}, nil)
	require.NoError(t, err)

	h := &countingHandler{resp: &transport.Response{Content: "ok"}}
	_, err = mw(h).Handle(context.Background(), &transport.Request{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, 1, h.calls)
}
