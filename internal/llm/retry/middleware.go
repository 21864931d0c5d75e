// Package retry provides the retry middleware for model calls.
// It handles transient transport failures with exponential backoff and
// jitter while respecting provider Retry-After guidance and caller
// cancellation at every suspension point.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/renoquote/renoquote/internal/llm/configuration"
	llmerrors "github.com/renoquote/renoquote/internal/llm/errors"
	"github.com/renoquote/renoquote/internal/llm/transport"
)

var (
	// Configuration validation errors.
	errMaxAttemptsInvalid     = errors.New("maxAttempts must be greater than 0")
	errInitialIntervalInvalid = errors.New("initialInterval must be greater than 0")
	errMaxIntervalInvalid     = errors.New("maxInterval must be >= initialInterval")
	errMultiplierInvalid      = errors.New("multiplier must be >= 1.0")

	// Runtime errors.
	errContextCancelledBeforeRetry = errors.New("context cancelled before retry")
	errContextCancelledDuringRetry = errors.New("context cancelled during retry")
)

// retryMiddleware implements bounded retry with exponential backoff.
// The attempt counter is scoped to a single logical call.
type retryMiddleware struct {
	config configuration.RetryConfig
	logger *slog.Logger
	stats  *retryStats
}

// NewMiddleware creates retry middleware with the specified configuration.
// Returns an error for configurations that could loop or hot-spin.
func NewMiddleware(cfg configuration.RetryConfig) (transport.Middleware, error) {
	mw, _, err := NewMiddlewareWithStats(cfg)
	return mw, err
}

// NewMiddlewareWithStats creates retry middleware and additionally returns
// an accessor for its counters, for callers that surface retry behavior in
// their own logs.
func NewMiddlewareWithStats(cfg configuration.RetryConfig) (transport.Middleware, func() Snapshot, error) {
	if cfg.MaxAttempts <= 0 {
		return nil, nil, fmt.Errorf("%w, got %d", errMaxAttemptsInvalid, cfg.MaxAttempts)
	}
	if cfg.InitialInterval <= 0 {
		return nil, nil, fmt.Errorf("%w, got %v", errInitialIntervalInvalid, cfg.InitialInterval)
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		return nil, nil, fmt.Errorf("%w, MaxInterval: %v, InitialInterval: %v",
			errMaxIntervalInvalid, cfg.MaxInterval, cfg.InitialInterval)
	}
	if cfg.Multiplier < 1.0 {
		return nil, nil, fmt.Errorf("%w, got %f", errMultiplierInvalid, cfg.Multiplier)
	}

	rm := &retryMiddleware{
		config: cfg,
		logger: slog.Default().With("component", "retry"),
		stats:  &retryStats{},
	}
	return rm.middleware(), rm.stats.snapshot, nil
}

func (r *retryMiddleware) middleware() transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			var lastErr error

			// Fail fast if the caller already cancelled.
			select {
			case <-ctx.Done():
				return nil, &llmerrors.TransportError{
					Type:    llmerrors.ErrorTypeCancelled,
					Message: fmt.Sprintf("%v: %v", errContextCancelledBeforeRetry, ctx.Err()),
				}
			default:
			}

			for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
				resp, err := next.Handle(ctx, req)
				r.stats.totalAttempts.Add(1)

				if err == nil {
					if attempt > 1 {
						r.stats.successfulRetries.Add(1)
						r.logger.Info("request succeeded after retry",
							"attempt", attempt,
							"model", req.Model)
					} else {
						r.stats.successfulFirstAttempts.Add(1)
					}
					return resp, nil
				}

				// Non-retryable failures propagate immediately so the
				// cascade can make a tier decision.
				if !llmerrors.IsRetryableError(err) {
					r.logger.Debug("non-retryable error",
						"error", err,
						"attempt", attempt,
						"model", req.Model)
					return nil, err
				}

				lastErr = err

				if attempt == r.config.MaxAttempts {
					break
				}

				backoff := r.calculateBackoff(attempt, err)
				r.logger.Debug("retrying after backoff",
					"attempt", attempt,
					"backoff", backoff,
					"error", err,
					"model", req.Model)

				// Backoff sleep is itself cancellable.
				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return nil, &llmerrors.TransportError{
						Type:    llmerrors.ErrorTypeCancelled,
						Message: fmt.Sprintf("%v: %v", errContextCancelledDuringRetry, ctx.Err()),
					}
				}
			}

			r.stats.failedRetries.Add(1)
			r.logger.Warn("retry budget exhausted",
				"model", req.Model,
				"retries", r.config.MaxRetries(),
				"stats", r.stats.snapshot())
			return nil, fmt.Errorf("%w after %d attempts: %w",
				llmerrors.ErrMaxRetriesExceeded, r.config.MaxAttempts, lastErr)
		})
	}
}
