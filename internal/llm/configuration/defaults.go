package configuration

import (
	"time"
)

// HTTP and connection constants.
const (
	DefaultMaxIdleConns       = 100
	DefaultIdleTimeoutSeconds = 90
	DefaultTLSTimeoutSeconds  = 10
	DefaultHTTPTimeoutSeconds = 60
)

// Retry constants.
const (
	DefaultMaxAttempts       = 3
	DefaultInitialInterval   = 500 * time.Millisecond
	DefaultMaxInterval       = 8 * time.Second
	DefaultBackoffMultiplier = 2.0
	DefaultJitterCeiling     = 250 * time.Millisecond
)

// Cache constants.
const (
	DefaultCacheTTL = 1 * time.Hour
)

// Vision constants.
const (
	DefaultMaxImages      = 3
	DefaultMaxDimension   = 1280
	DefaultTargetBytes    = 768 << 10 // 768KB per encoded image.
	DefaultInitialQuality = 85
	DefaultQualityFloor   = 40
	DefaultQualityStep    = 10
)

// DefaultGeminiEndpoint is the Google generative language API base URL.
const DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// DefaultConfig returns production-ready configuration with sensible
// defaults for resilience and payload budgeting.
func DefaultConfig() *Config {
	return &Config{
		HTTPTimeout: DefaultHTTPTimeoutSeconds * time.Second,
		Provider: ProviderConfig{
			Endpoint: DefaultGeminiEndpoint,
			Timeout:  45 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:     DefaultMaxAttempts,
			InitialInterval: DefaultInitialInterval,
			MaxInterval:     DefaultMaxInterval,
			Multiplier:      DefaultBackoffMultiplier,
			JitterCeiling:   DefaultJitterCeiling,
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     DefaultCacheTTL,
		},
		Vision: VisionConfig{
			MaxImages:      DefaultMaxImages,
			MaxDimension:   DefaultMaxDimension,
			TargetBytes:    DefaultTargetBytes,
			InitialQuality: DefaultInitialQuality,
			QualityFloor:   DefaultQualityFloor,
			QualityStep:    DefaultQualityStep,
		},
	}
}
