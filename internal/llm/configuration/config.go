// Package configuration holds the model-client configuration shared by the
// transport core, retry middleware, provider adapters, and orchestrator.
package configuration

import (
	"net/http"
	"time"
)

// Config holds comprehensive configuration for the model client.
type Config struct {
	// HTTP client configuration.
	HTTPTimeout time.Duration `json:"http_timeout"`
	HTTPClient  *http.Client  `json:"-"`

	// Provider holds Gemini endpoint and credential settings.
	Provider ProviderConfig `json:"provider"`

	// Retry configuration.
	Retry RetryConfig `json:"retry"`

	// Cache configuration for the optional response cache.
	Cache CacheConfig `json:"cache"`

	// Vision configuration for image payload compression.
	Vision VisionConfig `json:"vision"`
}

// ProviderConfig holds provider endpoint and authentication settings.
type ProviderConfig struct {
	Endpoint   string            `json:"endpoint"`
	APIKey     string            `json:"-"` // Sensitive, not serialized.
	Timeout    time.Duration     `json:"timeout"`
	Headers    map[string]string `json:"headers,omitempty"`
	SafetyOff  bool              `json:"safety_off"` // Relax safety settings for contractor terminology.
}

// RetryConfig controls retry behavior for failed model calls.
// Implements exponential backoff with jitter; the attempt counter resets per
// logical call, not globally.
type RetryConfig struct {
	MaxAttempts     int           `json:"max_attempts"`     // Total attempts per logical call (1 = no retries).
	InitialInterval time.Duration `json:"initial_interval"` // Starting backoff duration.
	MaxInterval     time.Duration `json:"max_interval"`     // Maximum backoff duration.
	Multiplier      float64       `json:"multiplier"`       // Exponential backoff multiplier.
	JitterCeiling   time.Duration `json:"jitter_ceiling"`   // Upper bound of the uniform jitter term.
}

// NewHTTPClient builds the provider HTTP client with pooled connections
// and the standard idle and TLS handshake timeouts. Used when no client is
// injected at assembly time.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        DefaultMaxIdleConns,
			MaxIdleConnsPerHost: DefaultMaxIdleConns,
			IdleConnTimeout:     DefaultIdleTimeoutSeconds * time.Second,
			TLSHandshakeTimeout: DefaultTLSTimeoutSeconds * time.Second,
		},
	}
}

// MaxRetries returns the number of retries after the first attempt.
func (c RetryConfig) MaxRetries() int {
	if c.MaxAttempts <= 1 {
		return 0
	}
	return c.MaxAttempts - 1
}

// CacheConfig controls the Redis-backed response cache.
// Caching is an optimization only: connection failures degrade gracefully
// to direct calls.
type CacheConfig struct {
	Enabled       bool          `json:"enabled"`
	TTL           time.Duration `json:"ttl"`
	RedisAddr     string        `json:"redis_addr"`
	RedisPassword string        `json:"-"` // Sensitive field excluded from JSON.
	RedisDB       int           `json:"redis_db"`
}

// VisionConfig bounds the image payload attached to vision-capable tiers.
type VisionConfig struct {
	MaxImages      int `json:"max_images"`      // Most-recent images attached per request.
	MaxDimension   int `json:"max_dimension"`   // Longest-side pixel cap.
	TargetBytes    int `json:"target_bytes"`    // Per-image encoded byte budget.
	InitialQuality int `json:"initial_quality"` // Starting JPEG quality.
	QualityFloor   int `json:"quality_floor"`   // Quality never reduced below this.
	QualityStep    int `json:"quality_step"`    // Reduction per compression iteration.
}
