// Package transport provides the middleware-composable request execution
// core for model calls. It defines the normalized request/response shapes
// shared by the provider adapters, retry middleware, and orchestrator.
package transport

import (
	"net/http"
	"time"
)

// Attachment is an inline image to send with a vision-capable request.
// Data holds raw (already compressed) image bytes; adapters handle base64
// encoding at the wire boundary.
type Attachment struct {
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// Request is a normalized model call, independent of any provider's wire
// format. Contains everything an adapter needs to construct the HTTP request
// plus control fields consumed by middleware.
type Request struct {
	// Model is the exact model identifier for this attempt.
	Model string `json:"model"`

	// Prompt is the fully rendered user prompt.
	Prompt string `json:"prompt"`

	// SystemPrompt provides instructions to the model.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Attachments carries inline images for vision-capable tiers.
	// Empty for text-only requests.
	Attachments []Attachment `json:"attachments,omitempty"`

	// JSONMode requests a structured JSON response from the model.
	JSONMode bool `json:"json_mode"`

	// Generation parameters control model behavior.
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p,omitempty"`
	TopK        int     `json:"top_k,omitempty"`

	// Control fields for resilience and observability.
	Timeout        time.Duration `json:"timeout"`
	IdempotencyKey string        `json:"idempotency_key,omitempty"`
	TraceID        string        `json:"trace_id,omitempty"`
}

// WithoutAttachments returns a copy of the request with all images dropped.
// Used for the text-only retry after a payload-too-large rejection.
func (r *Request) WithoutAttachments() *Request {
	cp := *r
	cp.Attachments = nil
	return &cp
}

// Response is the normalized output of a single successful model call.
// It is ephemeral: the normalizer consumes it and the pipeline discards it.
type Response struct {
	// Content is the extracted text payload.
	Content string `json:"content"`

	// StatusCode is the HTTP status of the provider response.
	StatusCode int `json:"status_code"`

	// Model echoes the model that produced the content.
	Model string `json:"model,omitempty"`

	// UsedVision records whether image attachments were part of the call.
	UsedVision bool `json:"used_vision,omitempty"`

	// Usage tracks resource consumption.
	Usage Usage `json:"usage"`

	// Headers preserves raw response headers for debugging.
	Headers http.Header `json:"-"`

	// RawBody preserves the original response for audit.
	RawBody []byte `json:"-"`
}

// Usage provides consistent usage metrics across model tiers.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
	LatencyMs        int64 `json:"latency_ms"`
}
