package orchestrator

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renoquote/renoquote/internal/domain"
	"github.com/renoquote/renoquote/internal/llm/configuration"
	llmerrors "github.com/renoquote/renoquote/internal/llm/errors"
	"github.com/renoquote/renoquote/internal/llm/transport"
	"github.com/renoquote/renoquote/internal/pricing"
)

// scriptedHandler replays canned results keyed by call order and records
// every request it sees.
type scriptedHandler struct {
	results []scriptedResult
	seen    []*transport.Request
}

type scriptedResult struct {
	resp *transport.Response
	err  error
}

func (h *scriptedHandler) Handle(_ context.Context, req *transport.Request) (*transport.Response, error) {
	h.seen = append(h.seen, req)
	idx := len(h.seen) - 1
	if idx >= len(h.results) {
		return nil, &llmerrors.TransportError{Type: llmerrors.ErrorTypeServerFault, Message: "no script entry"}
	}
	r := h.results[idx]
	return r.resp, r.err
}

func testRequest(t *testing.T) *domain.EstimateRequest {
	t.Helper()
	req, err := domain.NewEstimateRequest(domain.RoomKitchen, 180, domain.TierStandard)
	require.NoError(t, err)
	req.ZipCode = "90210"
	return req
}

func testPricingContext() pricing.Context {
	return pricing.Context{
		ZipCode:    "90210",
		Region:     "CA",
		Multiplier: 1.35,
		LaborRates: map[string]float64{"plumber": 150},
	}
}

func ok(model string) *transport.Response {
	return &transport.Response{
		Content:    `{"totalCost":{"low":10000,"high":15000}}`,
		StatusCode: 200,
		Model:      model,
	}
}

func httpErr(status int) error {
	return &llmerrors.TransportError{Type: llmerrors.ErrorTypeHTTP, StatusCode: status, Message: "rejected"}
}

func TestGenerate_FirstTierSucceeds(t *testing.T) {
	h := &scriptedHandler{results: []scriptedResult{{resp: ok("gemini-1.5-pro")}}}
	o := New(h, nil, configuration.DefaultConfig())

	raw, err := o.Generate(context.Background(), testRequest(t), testPricingContext())
	require.NoError(t, err)

	assert.Equal(t, "gemini-1.5-pro", raw.Model)
	assert.NotEmpty(t, raw.Payload)
	require.Len(t, h.seen, 1)
	assert.Equal(t, "gemini-1.5-pro", h.seen[0].Model)
	assert.True(t, h.seen[0].JSONMode)
}

func TestGenerate_AdvancesOnNotFound(t *testing.T) {
	h := &scriptedHandler{results: []scriptedResult{
		{err: httpErr(404)},
		{resp: ok("gemini-1.5-flash")},
	}}
	o := New(h, nil, configuration.DefaultConfig())

	raw, err := o.Generate(context.Background(), testRequest(t), testPricingContext())
	require.NoError(t, err)

	assert.Equal(t, "gemini-1.5-flash", raw.Model)
	require.Len(t, h.seen, 2)
	assert.Equal(t, "gemini-1.5-pro", h.seen[0].Model)
	assert.Equal(t, "gemini-1.5-flash", h.seen[1].Model)
}

func TestGenerate_AdvancesOnTimeout(t *testing.T) {
	h := &scriptedHandler{results: []scriptedResult{
		{err: &llmerrors.TransportError{Type: llmerrors.ErrorTypeTimeout, Message: "deadline"}},
		{resp: ok("gemini-1.5-flash")},
	}}
	o := New(h, nil, configuration.DefaultConfig())

	raw, err := o.Generate(context.Background(), testRequest(t), testPricingContext())
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-flash", raw.Model)
}

func TestGenerate_UnauthorizedAbortsCascade(t *testing.T) {
	h := &scriptedHandler{results: []scriptedResult{
		{err: &llmerrors.TransportError{Type: llmerrors.ErrorTypeUnauthorized, StatusCode: 401, Message: "bad key"}},
	}}
	o := New(h, nil, configuration.DefaultConfig())

	_, err := o.Generate(context.Background(), testRequest(t), testPricingContext())
	require.Error(t, err)

	var cfgErr *llmerrors.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
	// Only the first tier was attempted.
	assert.Len(t, h.seen, 1)
}

func TestGenerate_CancelledAbortsCascade(t *testing.T) {
	h := &scriptedHandler{results: []scriptedResult{
		{err: &llmerrors.TransportError{Type: llmerrors.ErrorTypeCancelled, Message: "caller gone"}},
	}}
	o := New(h, nil, configuration.DefaultConfig())

	_, err := o.Generate(context.Background(), testRequest(t), testPricingContext())
	require.Error(t, err)

	var tErr *llmerrors.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, llmerrors.ErrorTypeCancelled, tErr.Type)
	assert.Len(t, h.seen, 1)
}

func TestGenerate_ExhaustsAllTiers(t *testing.T) {
	h := &scriptedHandler{results: []scriptedResult{
		{err: httpErr(404)},
		{err: httpErr(400)},
		{err: &llmerrors.TransportError{Type: llmerrors.ErrorTypeTimeout, Message: "deadline"}},
	}}
	o := New(h, nil, configuration.DefaultConfig())

	_, err := o.Generate(context.Background(), testRequest(t), testPricingContext())
	require.Error(t, err)
	assert.ErrorIs(t, err, llmerrors.ErrCascadeExhausted)
	assert.Len(t, h.seen, 3)
}

func TestGenerate_PayloadTooLargeRetriesTextOnly(t *testing.T) {
	img := encodeTestJPEG(t, 64, 64)

	h := &scriptedHandler{results: []scriptedResult{
		{err: httpErr(413)},
		{resp: ok("gemini-1.5-pro")},
	}}
	o := New(h, nil, configuration.DefaultConfig())

	req := testRequest(t)
	req.Images = [][]byte{img}

	raw, err := o.Generate(context.Background(), req, testPricingContext())
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-pro", raw.Model)

	// Same tier twice: first with attachments, then text-only.
	require.Len(t, h.seen, 2)
	assert.Equal(t, h.seen[0].Model, h.seen[1].Model)
	assert.NotEmpty(t, h.seen[0].Attachments)
	assert.Empty(t, h.seen[1].Attachments)
}

func TestGenerate_TextTierGetsNoAttachments(t *testing.T) {
	img := encodeTestJPEG(t, 64, 64)

	h := &scriptedHandler{results: []scriptedResult{
		{err: httpErr(404)},
		{err: httpErr(404)},
		{resp: ok("gemini-1.5-flash-8b")},
	}}
	o := New(h, nil, configuration.DefaultConfig())

	req := testRequest(t)
	req.Images = [][]byte{img}

	_, err := o.Generate(context.Background(), req, testPricingContext())
	require.NoError(t, err)

	require.Len(t, h.seen, 3)
	assert.NotEmpty(t, h.seen[0].Attachments, "pro tier is vision-capable")
	assert.NotEmpty(t, h.seen[1].Attachments, "flash tier is vision-capable")
	assert.Empty(t, h.seen[2].Attachments, "8b tier is text-only")
}

func TestGenerate_IdempotencyKeyPerTier(t *testing.T) {
	h := &scriptedHandler{results: []scriptedResult{
		{err: httpErr(404)},
		{resp: ok("gemini-1.5-flash")},
	}}
	o := New(h, nil, configuration.DefaultConfig())

	req := testRequest(t)
	_, err := o.Generate(context.Background(), req, testPricingContext())
	require.NoError(t, err)

	require.Len(t, h.seen, 2)
	assert.NotEqual(t, h.seen[0].IdempotencyKey, h.seen[1].IdempotencyKey)
	assert.Contains(t, h.seen[0].IdempotencyKey, req.ID)
}

func TestBuildPrompt_IncludesRegionalContext(t *testing.T) {
	req := testRequest(t)
	req.Materials = []string{"quartz countertop", "hardwood flooring"}
	req.NeedsPermits = true

	prompt := BuildPrompt(req, testPricingContext())

	assert.Contains(t, prompt, "kitchen")
	assert.Contains(t, prompt, "90210")
	assert.Contains(t, prompt, "1.35")
	assert.Contains(t, prompt, "quartz countertop")
	assert.Contains(t, prompt, "totalCost")
	assert.Contains(t, prompt, "breakdown")
}

func TestDefaultTiers_CascadeOrder(t *testing.T) {
	tiers := DefaultTiers()
	require.Len(t, tiers, 3)

	assert.True(t, tiers[0].SupportsVision)
	assert.True(t, tiers[1].SupportsVision)
	assert.False(t, tiers[2].SupportsVision)
	for _, tier := range tiers {
		assert.True(t, tier.SupportsJSONMode)
		assert.NotEmpty(t, tier.Name)
	}
}

func TestGenerate_LogsSkipsAndFaultsDistinctly(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := &scriptedHandler{results: []scriptedResult{
		{err: httpErr(404)},
		{err: &llmerrors.TransportError{Type: llmerrors.ErrorTypeServerFault, StatusCode: 500, Message: "backend down"}},
		{resp: ok("gemini-1.5-flash-8b")},
	}}
	o := New(h, nil, configuration.DefaultConfig())

	raw, err := o.Generate(context.Background(), testRequest(t), testPricingContext())
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-flash-8b", raw.Model)

	logs := buf.String()
	assert.Contains(t, logs, "tier unavailable, advancing cascade")
	assert.Contains(t, logs, "tier failed, advancing cascade")
}
