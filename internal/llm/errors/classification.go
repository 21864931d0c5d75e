package errors

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// ClassifyStatus maps an HTTP status code onto the error taxonomy.
// Provider-specific error codes, when present, take precedence over the
// raw status code for finer classification.
func ClassifyStatus(statusCode int, errorCode string) ErrorType {
	lowerCode := strings.ToLower(errorCode)
	if strings.Contains(lowerCode, "rate") || strings.Contains(lowerCode, "resource_exhausted") {
		return ErrorTypeRateLimit
	}
	if strings.Contains(lowerCode, "timeout") || strings.Contains(lowerCode, "deadline") {
		return ErrorTypeTimeout
	}
	if strings.Contains(lowerCode, "auth") || strings.Contains(lowerCode, "unauthenticated") ||
		strings.Contains(lowerCode, "permission") {
		return ErrorTypeUnauthorized
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrorTypeUnauthorized
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ErrorTypeTimeout
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return ErrorTypeServerFault
	default:
		if statusCode >= 500 {
			return ErrorTypeServerFault
		}
		if statusCode >= 400 {
			return ErrorTypeHTTP
		}
		return ErrorTypeUnknown
	}
}

// ClassifyTransport maps a client-side failure (no HTTP response received)
// onto the taxonomy: cancellation, deadline, or network reachability.
func ClassifyTransport(err error) *TransportError {
	switch {
	case errors.Is(err, context.Canceled):
		return &TransportError{Type: ErrorTypeCancelled, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return &TransportError{Type: ErrorTypeTimeout, Message: err.Error()}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return &TransportError{Type: ErrorTypeTimeout, Message: err.Error()}
		}
		return &TransportError{Type: ErrorTypeUnreachable, Message: err.Error()}
	}

	if isNetworkError(err) {
		return &TransportError{Type: ErrorTypeUnreachable, Message: err.Error()}
	}

	return &TransportError{Type: ErrorTypeUnknown, Message: err.Error()}
}

// isNetworkError checks for network-related errors using type assertions
// before falling back to string patterns, avoiding fragile matching where
// proper error types exist.
func isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	lowered := strings.ToLower(err.Error())
	for _, indicator := range networkErrorIndicators {
		if strings.Contains(lowered, indicator) {
			return true
		}
	}
	return false
}

// networkErrorIndicators are pre-lowercased substrings of common
// connectivity failures not covered by typed errors.
var networkErrorIndicators = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"eof",
}
