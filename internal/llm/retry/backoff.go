package retry

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/renoquote/renoquote/internal/llm/configuration"
)

// AfterProvider defines an interface for error types that can provide a
// specific duration to wait before retrying. This allows providers to
// communicate backpressure, which the client respects over its own schedule.
type AfterProvider interface {
	// GetRetryAfter returns the recommended wait before the next attempt,
	// or zero if no specific duration is available.
	GetRetryAfter() time.Duration
}

// calculateBackoff computes the retry delay for a given attempt.
// Provider Retry-After guidance takes precedence; otherwise the delay is
// exponential with an additive uniform jitter term, capped at MaxInterval.
// Thread-safe via math/rand/v2.
func (r *retryMiddleware) calculateBackoff(attempt int, err error) time.Duration {
	if after := extractRetryAfter(err); after > 0 {
		if after > r.config.MaxInterval {
			return r.config.MaxInterval
		}
		return after
	}
	return ExponentialBackoff(attempt, r.config)
}

// extractRetryAfter pulls provider-specified retry delays from classified
// errors via the AfterProvider interface.
func extractRetryAfter(err error) time.Duration {
	var provider AfterProvider
	if errors.As(err, &provider) {
		return provider.GetRetryAfter()
	}
	return 0
}

// ExponentialBackoff calculates the delay before the given retry attempt:
// min(maxInterval, initial*multiplier^(attempt-1)) + uniform(0, jitterCeiling).
// Returns zero for non-positive attempt numbers.
func ExponentialBackoff(attempt int, cfg configuration.RetryConfig) time.Duration {
	if attempt <= 0 {
		return 0
	}

	backoff := cfg.InitialInterval
	if backoff <= 0 {
		backoff = time.Millisecond // Minimum 1ms to prevent hot looping.
	}

	multiplier := cfg.Multiplier
	if multiplier < 1.0 {
		multiplier = 1.0
	}

	for i := 1; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * multiplier)
		if backoff > cfg.MaxInterval {
			backoff = cfg.MaxInterval
			break
		}
	}

	if cfg.JitterCeiling > 0 {
		jitter := rand.Int64N(int64(cfg.JitterCeiling) + 1) // #nosec G404 -- non-cryptographic jitter is appropriate here
		backoff += time.Duration(jitter)
		if backoff > cfg.MaxInterval {
			backoff = cfg.MaxInterval
		}
	}

	return backoff
}
