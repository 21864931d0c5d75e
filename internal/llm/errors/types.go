// Package errors defines the closed error taxonomy for the estimate
// pipeline's transport layer. Types determine whether operations should be
// retried and with what backoff strategy, enabling resilient handling of
// transient vs. permanent failures.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType categorizes transport and model-call failures for retry
// classification. The set is closed: every failure the pipeline can observe
// maps onto exactly one of these values.
type ErrorType string

const (
	// ErrorTypeInvalidTarget indicates a malformed endpoint or model identifier (non-retryable).
	ErrorTypeInvalidTarget ErrorType = "invalid_target"

	// ErrorTypeNoData indicates the provider returned an empty payload (non-retryable).
	ErrorTypeNoData ErrorType = "no_data"

	// ErrorTypeDecode indicates response decoding failed (non-retryable).
	ErrorTypeDecode ErrorType = "decode_failed"

	// ErrorTypeEncode indicates request encoding failed (non-retryable).
	ErrorTypeEncode ErrorType = "encode_failed"

	// ErrorTypeHTTP indicates a non-2xx HTTP response outside the more
	// specific classifications below (non-retryable).
	ErrorTypeHTTP ErrorType = "http_error"

	// ErrorTypeUnreachable indicates network connectivity failure (retryable).
	ErrorTypeUnreachable ErrorType = "unreachable"

	// ErrorTypeTimeout indicates request timeout or deadline exceeded (retryable).
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeUnauthorized indicates authentication failure. Configuration
	// problem, never retried, aborts the tier cascade.
	ErrorTypeUnauthorized ErrorType = "unauthorized"

	// ErrorTypeRateLimit indicates rate limit exceeded, retry with backoff (retryable).
	ErrorTypeRateLimit ErrorType = "rate_limited"

	// ErrorTypeServerFault indicates a provider-side 5xx failure (retryable).
	ErrorTypeServerFault ErrorType = "server_fault"

	// ErrorTypeCancelled indicates the caller cancelled the operation.
	ErrorTypeCancelled ErrorType = "cancelled"

	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = "unknown"
)

// Common pipeline errors for consistent error handling.
var (
	// ErrNoData indicates the provider returned an empty body.
	ErrNoData = errors.New("empty response payload")

	// ErrUnknownModel indicates an unknown or unconfigured model tier.
	ErrUnknownModel = errors.New("unknown model")

	// ErrNotConfigured indicates a missing or invalid API credential.
	ErrNotConfigured = errors.New("credential not configured")

	// ErrCascadeExhausted indicates every model tier failed.
	ErrCascadeExhausted = errors.New("model cascade exhausted")

	// ErrUnusable indicates a model response with zero extractable cost signal.
	ErrUnusable = errors.New("response contains no usable cost signal")

	// ErrMaxRetriesExceeded indicates maximum retry attempts exceeded.
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
)

// TransportError captures a classified failure of a single model call.
// Includes the HTTP status code, a body excerpt, and retry timing to enable
// appropriate retry behavior and error diagnosis.
type TransportError struct {
	Type       ErrorType `json:"type"`
	StatusCode int       `json:"status_code,omitempty"`
	Message    string    `json:"message"`
	Body       string    `json:"body,omitempty"`        // Truncated response body for diagnosis.
	RetryAfter int       `json:"retry_after,omitempty"` // Retry-After header value in seconds.
}

// Error returns the formatted transport error with status code context.
func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transport %s (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("transport %s: %s", e.Type, e.Message)
}

// IsRetryable determines if the error warrants a retry attempt.
// Only transient failure classes are retryable; everything else fails
// immediately so the cascade can decide how to proceed.
func (e *TransportError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeTimeout, ErrorTypeUnreachable, ErrorTypeRateLimit, ErrorTypeServerFault:
		return true
	default:
		return false
	}
}

// IsPayloadTooLarge reports whether the provider rejected the request body
// for size. The orchestrator handles this by retrying the tier text-only.
func (e *TransportError) IsPayloadTooLarge() bool {
	return e.StatusCode == http.StatusRequestEntityTooLarge
}

// IsTierSkip reports whether the failure should advance the cascade to the
// next tier: unknown model, malformed request for this tier, or timeout.
func (e *TransportError) IsTierSkip() bool {
	return e.StatusCode == http.StatusNotFound ||
		e.StatusCode == http.StatusBadRequest ||
		e.Type == ErrorTypeTimeout
}

// GetRetryAfter implements the retry middleware's AfterProvider interface.
func (e *TransportError) GetRetryAfter() time.Duration {
	if e.RetryAfter > 0 {
		return time.Duration(e.RetryAfter) * time.Second
	}
	return 0
}

// ConfigurationError indicates a fatal setup problem such as a missing API
// credential. Never retried; surfaced immediately to the caller.
type ConfigurationError struct {
	Reason string `json:"reason"`
}

// Error returns the formatted configuration error.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// IsRetryableError determines if an error warrants a retry attempt.
// Examines the taxonomy type and HTTP status codes to provide consistent
// retry decisions across the pipeline.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var tErr *TransportError
	if errors.As(err, &tErr) {
		return tErr.IsRetryable()
	}

	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return false
	}

	// Examine HTTP status codes for retry classification.
	type statusCoder interface {
		StatusCode() int
	}
	if sc, ok := err.(statusCoder); ok {
		code := sc.StatusCode()
		return code == http.StatusTooManyRequests ||
			code == http.StatusRequestTimeout ||
			code == http.StatusGatewayTimeout ||
			code >= 500
	}

	// Conservative default: avoid retry loops for unknown errors.
	return false
}

// GetRetryAfter extracts a retry-after duration from a classified error,
// or 0 if no specific retry guidance is available.
func GetRetryAfter(err error) time.Duration {
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return tErr.GetRetryAfter()
	}
	return 0
}
