package worker

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/renoquote/renoquote/internal/estimator"
	"github.com/renoquote/renoquote/internal/llm/configuration"
	"github.com/renoquote/renoquote/internal/workflow"
)

// InitializeService assembles the estimation service for worker use.
// Returns the service for dependency injection rather than setting
// global state.
func InitializeService(ctx context.Context, cfg *configuration.Config, creds estimator.CredentialStore) (*estimator.Service, error) {
	svc, err := estimator.NewService(ctx, cfg, creds)
	if err != nil {
		return nil, fmt.Errorf("initialize estimation service: %w", err)
	}
	return svc, nil
}

// Run connects to Temporal, registers the pipeline, and polls the task
// queue until the interrupt channel closes.
func Run(ctx context.Context, hostPort string, cfg *configuration.Config, creds estimator.CredentialStore) error {
	svc, err := InitializeService(ctx, cfg, creds)
	if err != nil {
		return err
	}

	c, err := client.Dial(client.Options{HostPort: hostPort})
	if err != nil {
		return fmt.Errorf("connect to temporal at %s: %w", hostPort, err)
	}
	defer c.Close()

	w := sdkworker.New(c, workflow.TaskQueue, sdkworker.Options{})
	RegisterAll(w, svc)

	if err := w.Run(sdkworker.InterruptCh()); err != nil {
		return fmt.Errorf("worker stopped: %w", err)
	}
	return nil
}
