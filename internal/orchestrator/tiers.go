package orchestrator

import "time"

// ModelTier is one configured entry in the ordered fallback list.
// The cascade list is static configuration, not derived at runtime, and is
// walked strictly in order: no tier is ever revisited.
type ModelTier struct {
	// Name is the model identifier sent to the provider.
	Name string `json:"name"`

	// SupportsVision marks tiers that accept inline image attachments.
	SupportsVision bool `json:"supports_vision"`

	// SupportsJSONMode marks tiers that honor a JSON response mime type.
	SupportsJSONMode bool `json:"supports_json_mode"`
}

// DefaultTiers returns the production cascade, strongest model first.
func DefaultTiers() []ModelTier {
	return []ModelTier{
		{Name: "gemini-1.5-pro", SupportsVision: true, SupportsJSONMode: true},
		{Name: "gemini-1.5-flash", SupportsVision: true, SupportsJSONMode: true},
		{Name: "gemini-1.5-flash-8b", SupportsVision: false, SupportsJSONMode: true},
	}
}

// RawModelResponse is the opaque output of a successful cascade attempt.
// It is ephemeral: the normalizer consumes it and the pipeline discards it.
type RawModelResponse struct {
	// Payload is the model's raw text output.
	Payload string `json:"payload"`

	// StatusCode is the HTTP status of the winning attempt.
	StatusCode int `json:"status_code"`

	// Latency measures the winning attempt's round trip.
	Latency time.Duration `json:"latency"`

	// Model names the tier that produced the payload.
	Model string `json:"model"`

	// UsedVision records whether image attachments were part of the
	// winning request.
	UsedVision bool `json:"used_vision"`
}
