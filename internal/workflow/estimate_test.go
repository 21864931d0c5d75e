package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdkactivity "go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/renoquote/renoquote/internal/activity"
	"github.com/renoquote/renoquote/internal/domain"
	"github.com/renoquote/renoquote/internal/orchestrator"
)

func validRequest(t *testing.T) domain.EstimateRequest {
	t.Helper()
	req, err := domain.MakeEstimateRequest(
		"req-1", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		domain.RoomKitchen, 180, domain.TierStandard)
	require.NoError(t, err)
	req.ZipCode = "90210"
	return *req
}

// Stub activity implementations registered under the production names so
// the workflow's string-based invocations resolve.
func registerStubs(env *testsuite.TestWorkflowEnvironment) {
	env.RegisterActivityWithOptions(
		func(ctx context.Context, req domain.EstimateRequest) (*orchestrator.RawModelResponse, error) {
			return &orchestrator.RawModelResponse{Payload: "{}", Model: "gemini-1.5-pro"}, nil
		},
		sdkactivity.RegisterOptions{Name: activity.GenerateQuoteName})

	env.RegisterActivityWithOptions(
		func(ctx context.Context, raw orchestrator.RawModelResponse) (*domain.NormalizedEstimate, error) {
			return &domain.NormalizedEstimate{
				TotalCost:  domain.CostRange{Low: 10000, High: 15000},
				Timeline:   domain.Timeline{DaysLow: 10, DaysHigh: 20},
				Confidence: 0.85,
			}, nil
		},
		sdkactivity.RegisterOptions{Name: activity.NormalizeQuoteName})

	env.RegisterActivityWithOptions(
		func(ctx context.Context, in activity.SynthesizeInput) (*domain.NormalizedEstimate, error) {
			out := in.Estimate
			out.RequestID = in.Request.ID
			out.Regional = domain.RegionalData{Multiplier: 1.35, Region: "CA"}
			return &out, nil
		},
		sdkactivity.RegisterOptions{Name: activity.SynthesizeQuoteName})

	env.RegisterActivityWithOptions(
		func(ctx context.Context, req domain.EstimateRequest) (*domain.NormalizedEstimate, error) {
			return &domain.NormalizedEstimate{
				RequestID:  req.ID,
				Confidence: 1,
			}, nil
		},
		sdkactivity.RegisterOptions{Name: activity.DegenerateQuoteName})
}

func TestEstimateWorkflow(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}

	t.Run("full_pipeline_happy_path", func(t *testing.T) {
		env := testSuite.NewTestWorkflowEnvironment()
		registerStubs(env)

		env.ExecuteWorkflow(EstimateWorkflow, validRequest(t))

		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())

		var est domain.NormalizedEstimate
		require.NoError(t, env.GetWorkflowResult(&est))
		assert.Equal(t, "req-1", est.RequestID)
		assert.Equal(t, domain.CostRange{Low: 10000, High: 15000}, est.TotalCost)
		assert.Equal(t, "CA", est.Regional.Region)
	})

	t.Run("invalid_request_fails_validation", func(t *testing.T) {
		env := testSuite.NewTestWorkflowEnvironment()
		registerStubs(env)

		req := validRequest(t)
		req.RoomType = "submarine"
		env.ExecuteWorkflow(EstimateWorkflow, req)

		require.True(t, env.IsWorkflowCompleted())
		err := env.GetWorkflowError()
		require.Error(t, err)

		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "Validation", appErr.Type())
		assert.True(t, appErr.NonRetryable())
	})

	t.Run("zero_scope_skips_generation", func(t *testing.T) {
		env := testSuite.NewTestWorkflowEnvironment()
		registerStubs(env)

		req := validRequest(t)
		req.SquareFootage = 0
		env.ExecuteWorkflow(EstimateWorkflow, req)

		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())

		var est domain.NormalizedEstimate
		require.NoError(t, env.GetWorkflowResult(&est))
		assert.Equal(t, "req-1", est.RequestID)
		assert.Equal(t, 1.0, est.Confidence)
	})

	t.Run("generation_failure_propagates", func(t *testing.T) {
		env := testSuite.NewTestWorkflowEnvironment()
		registerStubs(env)

		env.OnActivity(activity.GenerateQuoteName, mock.Anything, mock.Anything).
			Return(nil, temporal.NewNonRetryableApplicationError(
				"all model tiers exhausted", "CascadeExhausted", errors.New("boom")))

		env.ExecuteWorkflow(EstimateWorkflow, validRequest(t))

		require.True(t, env.IsWorkflowCompleted())
		err := env.GetWorkflowError()
		require.Error(t, err)

		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "CascadeExhausted", appErr.Type())
	})
}
