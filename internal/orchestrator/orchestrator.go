// Package orchestrator implements the cascading multi-model generation
// strategy: it builds the estimation prompt, prepares vision payloads under
// a byte budget, and walks an ordered list of model tiers through the
// transport layer until one succeeds or the cascade is exhausted.
//
// Attempt bound: with N tiers and R retries per attempt the cascade
// performs at most N*(1+R) transport attempts, plus at most one text-only
// retry per vision tier after a payload rejection.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/renoquote/renoquote/internal/domain"
	"github.com/renoquote/renoquote/internal/llm/configuration"
	llmerrors "github.com/renoquote/renoquote/internal/llm/errors"
	"github.com/renoquote/renoquote/internal/llm/transport"
	"github.com/renoquote/renoquote/internal/pricing"
	"github.com/renoquote/renoquote/internal/vision"
)

// Generation parameter defaults for estimation calls.
const (
	defaultMaxTokens   = 4096
	defaultTemperature = 0.3
	defaultTopP        = 0.95
	defaultTopK        = 40
)

// Orchestrator owns the tier cascade for estimate generation.
type Orchestrator struct {
	handler transport.Handler
	tiers   []ModelTier
	vision  configuration.VisionConfig
	timeout time.Duration
	logger  *slog.Logger
}

// New creates an orchestrator over the given transport handler and tier
// list. An empty tier list falls back to DefaultTiers.
func New(handler transport.Handler, tiers []ModelTier, cfg *configuration.Config) *Orchestrator {
	if cfg == nil {
		cfg = configuration.DefaultConfig()
	}
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	return &Orchestrator{
		handler: handler,
		tiers:   tiers,
		vision:  cfg.Vision,
		timeout: cfg.Provider.Timeout,
		logger:  slog.Default().With("component", "orchestrator"),
	}
}

// Tiers returns the configured cascade order.
func (o *Orchestrator) Tiers() []ModelTier {
	out := make([]ModelTier, len(o.tiers))
	copy(out, o.tiers)
	return out
}

// Generate runs the tier cascade for a single estimate request.
//
// Tier walk rules: a 2xx returns immediately; 400, 404, and timeouts
// advance to the next tier; a payload-too-large rejection on a vision
// request retries the same tier once text-only before advancing; an
// authentication failure aborts the whole cascade as a configuration
// error. Exhausting every tier returns ErrCascadeExhausted.
func (o *Orchestrator) Generate(ctx context.Context, req *domain.EstimateRequest, pctx pricing.Context) (*RawModelResponse, error) {
	prompt := BuildPrompt(req, pctx)

	// Compression happens once; text-only tiers simply never see the
	// attachments. An empty image list skips this entirely.
	attachments := vision.PrepareAttachments(req.Images, o.vision)

	var lastErr error
	for i, tier := range o.tiers {
		treq := o.buildRequest(req, tier, prompt, attachments)

		start := time.Now()
		resp, err := o.handler.Handle(ctx, treq)
		if err == nil {
			return rawResponse(resp, time.Since(start)), nil
		}

		if abort := o.classifyAbort(err); abort != nil {
			return nil, abort
		}

		// Payload rejected for size on a vision attempt: drop images and
		// retry this tier once before advancing.
		if isPayloadTooLarge(err) && len(treq.Attachments) > 0 {
			o.logger.Warn("payload rejected, retrying tier text-only",
				"tier", tier.Name, "images", len(treq.Attachments))

			start = time.Now()
			resp, err = o.handler.Handle(ctx, treq.WithoutAttachments())
			if err == nil {
				return rawResponse(resp, time.Since(start)), nil
			}
			if abort := o.classifyAbort(err); abort != nil {
				return nil, abort
			}
		}

		lastErr = err
		// Missing models, rejected request shapes, and timeouts are
		// expected cascade signals; anything else advancing the tier
		// means retries were already exhausted on a real fault.
		if isTierSkip(err) {
			o.logger.Info("tier unavailable, advancing cascade",
				"tier", tier.Name,
				"next", i+1,
				"error", err)
		} else {
			o.logger.Warn("tier failed, advancing cascade",
				"tier", tier.Name,
				"next", i+1,
				"error", err)
		}
	}

	return nil, fmt.Errorf("%w: %d tiers attempted: %w",
		llmerrors.ErrCascadeExhausted, len(o.tiers), lastErr)
}

// buildRequest assembles the tier-appropriate transport request.
// Vision-capable tiers receive the image attachments; others get text only.
func (o *Orchestrator) buildRequest(req *domain.EstimateRequest, tier ModelTier, prompt string, attachments []transport.Attachment) *transport.Request {
	treq := &transport.Request{
		Model:          tier.Name,
		Prompt:         prompt,
		SystemPrompt:   systemPrompt,
		JSONMode:       tier.SupportsJSONMode,
		MaxTokens:      defaultMaxTokens,
		Temperature:    defaultTemperature,
		TopP:           defaultTopP,
		TopK:           defaultTopK,
		Timeout:        o.timeout,
		IdempotencyKey: fmt.Sprintf("%s|%s", req.ID, tier.Name),
		TraceID:        req.ID,
	}
	if tier.SupportsVision {
		treq.Attachments = attachments
	}
	return treq
}

// classifyAbort returns a non-nil error when the failure must stop the
// cascade outright: credential problems and caller cancellation. Every
// other failure is a tier-local problem the cascade absorbs.
func (o *Orchestrator) classifyAbort(err error) error {
	var tErr *llmerrors.TransportError
	if errors.As(err, &tErr) {
		switch tErr.Type {
		case llmerrors.ErrorTypeUnauthorized:
			return &llmerrors.ConfigurationError{
				Reason: fmt.Sprintf("provider rejected credential: %s", tErr.Message),
			}
		case llmerrors.ErrorTypeCancelled:
			return err
		}
	}
	return nil
}

func isPayloadTooLarge(err error) bool {
	var tErr *llmerrors.TransportError
	return errors.As(err, &tErr) && tErr.IsPayloadTooLarge()
}

func isTierSkip(err error) bool {
	var tErr *llmerrors.TransportError
	return errors.As(err, &tErr) && tErr.IsTierSkip()
}

func rawResponse(resp *transport.Response, latency time.Duration) *RawModelResponse {
	return &RawModelResponse{
		Payload:    resp.Content,
		StatusCode: resp.StatusCode,
		Latency:    latency,
		Model:      resp.Model,
		UsedVision: resp.UsedVision,
	}
}
