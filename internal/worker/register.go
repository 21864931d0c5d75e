// Package worker wires the estimation pipeline into a Temporal worker:
// service initialization, workflow and activity registration, and the
// polling loop.
package worker

import (
	sdkactivity "go.temporal.io/sdk/activity"
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/renoquote/renoquote/internal/activity"
	"github.com/renoquote/renoquote/internal/estimator"
	"github.com/renoquote/renoquote/internal/workflow"
)

// RegisterAll registers the estimate workflow and its activities with the
// worker. Not thread-safe; call once during startup before the worker runs.
func RegisterAll(w sdkworker.Worker, svc *estimator.Service) {
	acts := activity.NewActivities(svc)

	w.RegisterWorkflow(workflow.EstimateWorkflow)

	w.RegisterActivityWithOptions(acts.GenerateQuote,
		sdkactivity.RegisterOptions{Name: activity.GenerateQuoteName})
	w.RegisterActivityWithOptions(acts.NormalizeQuote,
		sdkactivity.RegisterOptions{Name: activity.NormalizeQuoteName})
	w.RegisterActivityWithOptions(acts.SynthesizeQuote,
		sdkactivity.RegisterOptions{Name: activity.SynthesizeQuoteName})
	w.RegisterActivityWithOptions(acts.DegenerateQuote,
		sdkactivity.RegisterOptions{Name: activity.DegenerateQuoteName})
}
