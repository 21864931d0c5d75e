// Package estimator assembles the full estimation pipeline behind a single
// Service facade: credential resolution, the middleware-wrapped transport
// chain, the tier cascade, normalization, and synthesis.
package estimator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/renoquote/renoquote/internal/domain"
	"github.com/renoquote/renoquote/internal/llm/cache"
	"github.com/renoquote/renoquote/internal/llm/configuration"
	llmerrors "github.com/renoquote/renoquote/internal/llm/errors"
	"github.com/renoquote/renoquote/internal/llm/providers"
	"github.com/renoquote/renoquote/internal/llm/retry"
	"github.com/renoquote/renoquote/internal/llm/transport"
	"github.com/renoquote/renoquote/internal/normalizer"
	"github.com/renoquote/renoquote/internal/orchestrator"
	"github.com/renoquote/renoquote/internal/pricing"
	"github.com/renoquote/renoquote/internal/synthesis"
)

// CredentialStore resolves the provider API key at call-assembly time.
// Implementations may read environment variables, files, or secret
// managers; the service never logs or serializes the resolved key.
type CredentialStore interface {
	// APIKey returns the provider credential, or ErrNotConfigured when
	// no credential is available.
	APIKey() (string, error)
}

// StaticCredentials is a CredentialStore over a fixed key.
type StaticCredentials string

// APIKey implements CredentialStore.
func (s StaticCredentials) APIKey() (string, error) {
	if s == "" {
		return "", llmerrors.ErrNotConfigured
	}
	return string(s), nil
}

// EstimateSink receives every synthesized estimate. Sinks are advisory:
// a sink error is logged and never fails the request.
type EstimateSink interface {
	Record(ctx context.Context, est *domain.NormalizedEstimate) error
}

// Service is the top-level estimation pipeline.
type Service struct {
	orch       *orchestrator.Orchestrator
	normalizer *normalizer.Normalizer
	synth      *synthesis.Synthesizer
	oracle     *pricing.Oracle
	sink       EstimateSink
	retryStats func() retry.Snapshot
	logger     *slog.Logger
}

// Option customizes service assembly.
type Option func(*options)

type options struct {
	sink       EstimateSink
	tiers      []orchestrator.ModelTier
	httpClient *http.Client
}

// WithSink attaches an estimate sink.
func WithSink(sink EstimateSink) Option {
	return func(o *options) { o.sink = sink }
}

// WithTiers overrides the default model cascade.
func WithTiers(tiers []orchestrator.ModelTier) Option {
	return func(o *options) { o.tiers = tiers }
}

// WithHTTPClient overrides the HTTP client used for provider calls.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// NewService assembles the pipeline: credential resolution, the provider
// router, the core HTTP handler wrapped in cache and retry middleware,
// the orchestrator, and the pricing oracle. A missing credential surfaces
// as a ConfigurationError so callers can distinguish operator error from
// transient failure.
func NewService(ctx context.Context, cfg *configuration.Config, creds CredentialStore, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = configuration.DefaultConfig()
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	key, err := creds.APIKey()
	if err != nil {
		if errors.Is(err, llmerrors.ErrNotConfigured) {
			return nil, &llmerrors.ConfigurationError{Reason: "no provider API key configured"}
		}
		return nil, fmt.Errorf("resolve credential: %w", err)
	}
	cfg.Provider.APIKey = key

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = cfg.HTTPClient
	}
	if httpClient == nil {
		httpClient = configuration.NewHTTPClient(cfg.HTTPTimeout)
	}

	core := transport.NewHTTPHandler(httpClient, providers.NewRouter(cfg.Provider))

	retryMW, retryStats, err := retry.NewMiddlewareWithStats(cfg.Retry)
	if err != nil {
		return nil, fmt.Errorf("build retry middleware: %w", err)
	}
	cacheMW, err := cache.NewMiddlewareWithRedis(ctx, cfg.Cache, nil)
	if err != nil {
		return nil, fmt.Errorf("build cache middleware: %w", err)
	}

	// Cache outermost so a hit skips the retry loop entirely.
	handler := transport.Chain(core, cacheMW, retryMW)

	oracle := pricing.NewOracle(cfg.Cache.TTL)

	return &Service{
		orch:       orchestrator.New(handler, o.tiers, cfg),
		normalizer: normalizer.New(),
		synth:      synthesis.New(oracle),
		oracle:     oracle,
		sink:       o.sink,
		retryStats: retryStats,
		logger:     slog.Default().With("component", "estimator"),
	}, nil
}

// Oracle exposes the pricing oracle for prompt enrichment and lookups.
func (s *Service) Oracle() *pricing.Oracle { return s.oracle }

// Estimate runs the full pipeline for one request: validation, regional
// context resolution, tier-cascade generation, normalization, and
// synthesis. A zero-square-footage request short-circuits to a degenerate
// zero-cost estimate without any model call.
func (s *Service) Estimate(ctx context.Context, req *domain.EstimateRequest) (*domain.NormalizedEstimate, error) {
	if req.SquareFootage == 0 {
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("invalid request: %w", err)
		}
		return s.Degenerate(ctx, req)
	}

	raw, err := s.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	est, err := s.Normalize(raw)
	if err != nil {
		return nil, err
	}

	return s.Synthesize(ctx, est, req)
}

// Generate runs the cascade stage only: validation, regional context
// resolution, and tier-walked model generation.
func (s *Service) Generate(ctx context.Context, req *domain.EstimateRequest) (*orchestrator.RawModelResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	pctx := s.oracle.Context(req.ZipCode)

	start := time.Now()
	raw, err := s.orch.Generate(ctx, req, pctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("generation complete",
		"request_id", req.ID,
		"model", raw.Model,
		"used_vision", raw.UsedVision,
		"elapsed", time.Since(start),
		"retries", s.retryStats())
	return raw, nil
}

// Normalize runs the decode stage only.
func (s *Service) Normalize(raw *orchestrator.RawModelResponse) (*domain.NormalizedEstimate, error) {
	est, err := s.normalizer.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize response from %s: %w", raw.Model, err)
	}
	return est, nil
}

// Synthesize runs the final stage: oracle reconciliation, regional
// stamping, confidence adjustment, and sink notification.
func (s *Service) Synthesize(ctx context.Context, est *domain.NormalizedEstimate, req *domain.EstimateRequest) (*domain.NormalizedEstimate, error) {
	return s.finish(ctx, s.synth.Synthesize(est, req), req)
}

// Degenerate returns the fixed zero-cost estimate for zero-scope requests.
func (s *Service) Degenerate(ctx context.Context, req *domain.EstimateRequest) (*domain.NormalizedEstimate, error) {
	s.logger.Info("zero square footage, returning degenerate estimate", "request_id", req.ID)
	return s.finish(ctx, degenerateEstimate(req), req)
}

func (s *Service) finish(ctx context.Context, est *domain.NormalizedEstimate, req *domain.EstimateRequest) (*domain.NormalizedEstimate, error) {
	if s.sink != nil {
		if err := s.sink.Record(ctx, est); err != nil {
			s.logger.Warn("estimate sink failed", "request_id", req.ID, "error", err)
		}
	}
	return est, nil
}

// degenerateEstimate is the fixed response for zero-scope requests.
func degenerateEstimate(req *domain.EstimateRequest) *domain.NormalizedEstimate {
	region, mult := pricing.RegionFor(req.ZipCode)
	return &domain.NormalizedEstimate{
		RequestID:  req.ID,
		TotalCost:  domain.CostRange{},
		Breakdown:  []domain.LineItem{},
		Timeline:   domain.Timeline{},
		Notes:      "no work scope: square footage is zero",
		Confidence: 1,
		Regional:   domain.RegionalData{Multiplier: mult, Region: region},
		CreatedAt:  time.Now().UTC(),
	}
}
