// Package workflow orchestrates estimate generation as a Temporal
// workflow with deterministic control flow: Generate → Normalize →
// Synthesize. Image payloads do not travel through workflow history;
// the workflow path is text-only and photo-bearing requests use the
// in-process service pipeline instead.
package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/renoquote/renoquote/internal/activity"
	"github.com/renoquote/renoquote/internal/domain"
	"github.com/renoquote/renoquote/internal/orchestrator"
)

// TaskQueue is the queue workers poll and starters dispatch to.
const TaskQueue = "renoquote-estimates"

// Per-activity execution bounds. Generation dominates: it may walk every
// model tier with retries before returning.
const (
	generateTimeout = 3 * time.Minute
	stageTimeout    = 30 * time.Second
)

// EstimateWorkflow runs the estimation pipeline for one request.
// All workflow code uses workflow-safe APIs only; every non-deterministic
// operation lives in the activities.
func EstimateWorkflow(ctx workflow.Context, req domain.EstimateRequest) (*domain.NormalizedEstimate, error) {
	const currentVersion = 1
	_ = workflow.GetVersion(ctx, "estimate.v", workflow.DefaultVersion, currentVersion)

	if err := req.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"invalid estimate request", "Validation", err)
	}

	retryPolicy := &temporal.RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    time.Minute,
		MaximumAttempts:    3,
	}

	// Zero scope needs no model call: one fixed-output activity.
	if req.SquareFootage == 0 {
		ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
			StartToCloseTimeout: stageTimeout,
			RetryPolicy:         retryPolicy,
		})
		var est domain.NormalizedEstimate
		if err := workflow.ExecuteActivity(ctx, activity.DegenerateQuoteName, req).Get(ctx, &est); err != nil {
			return nil, err
		}
		return &est, nil
	}

	genCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: generateTimeout,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy:         retryPolicy,
	})
	var raw orchestrator.RawModelResponse
	if err := workflow.ExecuteActivity(genCtx, activity.GenerateQuoteName, req).Get(genCtx, &raw); err != nil {
		return nil, err
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: stageTimeout,
		RetryPolicy:         retryPolicy,
	})

	var est domain.NormalizedEstimate
	if err := workflow.ExecuteActivity(ctx, activity.NormalizeQuoteName, raw).Get(ctx, &est); err != nil {
		return nil, err
	}

	in := activity.SynthesizeInput{Estimate: est, Request: req}
	var final domain.NormalizedEstimate
	if err := workflow.ExecuteActivity(ctx, activity.SynthesizeQuoteName, in).Get(ctx, &final); err != nil {
		return nil, err
	}
	return &final, nil
}
