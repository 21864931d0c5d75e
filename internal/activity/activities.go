// Package activity exposes the estimation pipeline stages as Temporal
// activities. Each stage is independently retryable by the workflow's
// retry policy; non-recoverable failures are marked non-retryable so the
// workflow fails fast instead of burning attempts.
package activity

import (
	"context"
	"errors"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/renoquote/renoquote/internal/domain"
	"github.com/renoquote/renoquote/internal/estimator"
	llmerrors "github.com/renoquote/renoquote/internal/llm/errors"
	"github.com/renoquote/renoquote/internal/orchestrator"
)

// Activity names used for registration and workflow invocation.
const (
	GenerateQuoteName   = "GenerateQuote"
	NormalizeQuoteName  = "NormalizeQuote"
	SynthesizeQuoteName = "SynthesizeQuote"
	DegenerateQuoteName = "DegenerateQuote"
)

// SynthesizeInput pairs a normalized estimate with its originating request
// for the final synthesis stage.
type SynthesizeInput struct {
	Estimate domain.NormalizedEstimate `json:"estimate"`
	Request  domain.EstimateRequest    `json:"request"`
}

// Activities binds the pipeline stages to a shared service instance.
type Activities struct {
	svc    *estimator.Service
	logger *slog.Logger
}

// NewActivities creates the activity set over an assembled service.
func NewActivities(svc *estimator.Service) *Activities {
	return &Activities{
		svc:    svc,
		logger: slog.Default().With("component", "activity"),
	}
}

// GenerateQuote runs the tier cascade for a request and returns the raw
// model payload. Credential failures and exhausted cascades are
// non-retryable: re-running the activity cannot fix either.
func (a *Activities) GenerateQuote(ctx context.Context, req domain.EstimateRequest) (*orchestrator.RawModelResponse, error) {
	raw, err := a.svc.Generate(ctx, &req)
	if err != nil {
		var cfgErr *llmerrors.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, temporal.NewNonRetryableApplicationError(
				"provider configuration rejected", "Configuration", err)
		}
		if errors.Is(err, llmerrors.ErrCascadeExhausted) {
			return nil, temporal.NewNonRetryableApplicationError(
				"all model tiers exhausted", "CascadeExhausted", err)
		}
		return nil, err
	}
	return raw, nil
}

// NormalizeQuote decodes a raw model payload into the canonical estimate
// shape. Unusable payloads are non-retryable: the input is fixed, so a
// retry can only reproduce the failure.
func (a *Activities) NormalizeQuote(_ context.Context, raw orchestrator.RawModelResponse) (*domain.NormalizedEstimate, error) {
	est, err := a.svc.Normalize(&raw)
	if err != nil {
		if errors.Is(err, llmerrors.ErrUnusable) {
			return nil, temporal.NewNonRetryableApplicationError(
				"model output unusable", "Unusable", err)
		}
		return nil, err
	}
	return est, nil
}

// SynthesizeQuote finalizes an estimate against the pricing oracle.
func (a *Activities) SynthesizeQuote(ctx context.Context, in SynthesizeInput) (*domain.NormalizedEstimate, error) {
	return a.svc.Synthesize(ctx, &in.Estimate, &in.Request)
}

// DegenerateQuote builds the fixed zero-cost estimate for requests with
// no work scope, bypassing model generation entirely.
func (a *Activities) DegenerateQuote(ctx context.Context, req domain.EstimateRequest) (*domain.NormalizedEstimate, error) {
	return a.svc.Degenerate(ctx, &req)
}
