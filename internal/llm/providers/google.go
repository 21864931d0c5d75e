// Package providers implements the provider adapters that translate
// normalized requests into vendor wire formats. The estimate pipeline
// targets Google's generateContent API; the adapter handles API key
// authentication, inline image data, and Google-specific response shapes.
package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/renoquote/renoquote/internal/llm/configuration"
	llmerrors "github.com/renoquote/renoquote/internal/llm/errors"
	"github.com/renoquote/renoquote/internal/llm/transport"
)

// GoogleAdapter implements transport.ProviderAdapter for Gemini models.
type GoogleAdapter struct {
	config configuration.ProviderConfig
}

// NewGoogleAdapter creates a Google provider adapter with default endpoint.
// If no endpoint is configured, it defaults to the generative language API.
func NewGoogleAdapter(cfg configuration.ProviderConfig) *GoogleAdapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = configuration.DefaultGeminiEndpoint
	}
	return &GoogleAdapter{config: cfg}
}

// Name returns the provider name.
func (a *GoogleAdapter) Name() string {
	return ProviderGoogle
}

// Build constructs a Gemini generateContent request from a normalized
// request. Image attachments become base64 inlineData parts after the
// prompt text; generation parameters map onto generationConfig.
func (a *GoogleAdapter) Build(ctx context.Context, req *transport.Request) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", a.config.Endpoint, req.Model)

	// API key travels as a query parameter per Google's auth scheme.
	endpoint = fmt.Sprintf("%s?key=%s", endpoint, a.config.APIKey)

	parts := []map[string]any{
		{"text": req.Prompt},
	}

	for _, att := range req.Attachments {
		parts = append(parts, map[string]any{
			"inlineData": map[string]any{
				"mimeType": att.MimeType,
				"data":     base64.StdEncoding.EncodeToString(att.Data),
			},
		})
	}

	generationConfig := map[string]any{
		"temperature":     req.Temperature,
		"maxOutputTokens": req.MaxTokens,
	}
	if req.TopP > 0 {
		generationConfig["topP"] = req.TopP
	}
	if req.TopK > 0 {
		generationConfig["topK"] = req.TopK
	}
	if req.JSONMode {
		generationConfig["responseMimeType"] = "application/json"
	}

	body := map[string]any{
		"contents": []map[string]any{
			{
				"role":  "user",
				"parts": parts,
			},
		},
		"generationConfig": generationConfig,
	}

	if req.SystemPrompt != "" {
		body["systemInstruction"] = map[string]any{
			"parts": []map[string]any{
				{"text": req.SystemPrompt},
			},
		}
	}

	// Renovation prompts mention demolition, gas lines, and similar terms
	// that default safety thresholds occasionally flag.
	if a.config.SafetyOff {
		body["safetySettings"] = []map[string]any{
			{"category": "HARM_CATEGORY_DANGEROUS_CONTENT", "threshold": "BLOCK_ONLY_HIGH"},
		}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}

	return httpReq, nil
}

// Parse extracts normalized data from a Gemini response.
// Handles the candidates format and usage metadata; non-2xx statuses are
// classified into the transport error taxonomy.
func (a *GoogleAdapter) Parse(httpResp *http.Response) (*transport.Response, error) {
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &llmerrors.TransportError{
			Type:       llmerrors.ErrorTypeDecode,
			StatusCode: httpResp.StatusCode,
			Message:    fmt.Sprintf("failed to read response: %v", err),
		}
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, parseGoogleError(httpResp, body)
	}

	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
			TotalTokenCount      int `json:"totalTokenCount"`
		} `json:"usageMetadata"`
	}

	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &llmerrors.TransportError{
			Type:       llmerrors.ErrorTypeDecode,
			StatusCode: httpResp.StatusCode,
			Message:    fmt.Sprintf("failed to parse response: %v", err),
		}
	}

	var content string
	if len(resp.Candidates) > 0 {
		for _, part := range resp.Candidates[0].Content.Parts {
			content += part.Text
		}
	}

	return &transport.Response{
		Content:    content,
		StatusCode: httpResp.StatusCode,
		Usage: transport.Usage{
			PromptTokens:     int64(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int64(resp.UsageMetadata.TotalTokenCount),
		},
		Headers: httpResp.Header,
		RawBody: body,
	}, nil
}

// parseGoogleError converts Google error responses into classified
// transport errors, preserving Retry-After guidance when present.
func parseGoogleError(httpResp *http.Response, body []byte) error {
	statusCode := httpResp.StatusCode

	retryAfter := 0
	if ra := httpResp.Header.Get("Retry-After"); ra != "" {
		if seconds, err := strconv.Atoi(ra); err == nil {
			retryAfter = seconds
		}
	}

	var errResp struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}

	message := string(body)
	errorCode := ""
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		errorCode = errResp.Error.Status
	}

	return &llmerrors.TransportError{
		Type:       llmerrors.ClassifyStatus(statusCode, errorCode),
		StatusCode: statusCode,
		Message:    message,
		Body:       truncate(string(body), maxErrorBodyBytes),
		RetryAfter: retryAfter,
	}
}

// maxErrorBodyBytes caps the body excerpt carried inside transport errors.
const maxErrorBodyBytes = 2048

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
