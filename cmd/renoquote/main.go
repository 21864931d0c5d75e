// Renovation cost estimation service.
//
// Usage:
//
//	renoquote estimate --room kitchen --sqft 180 --tier standard --zip 90210
//	renoquote serve --listen :8080
//	renoquote worker --temporal-host localhost:7233
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/renoquote/renoquote/internal/config"
	"github.com/renoquote/renoquote/internal/domain"
	"github.com/renoquote/renoquote/internal/estimator"
	"github.com/renoquote/renoquote/internal/httpapi"
	"github.com/renoquote/renoquote/internal/worker"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	app := &cli.App{
		Name:    "renoquote",
		Usage:   "Model-assisted renovation cost estimation",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to TOML config file",
				EnvVars: []string{"RENOQUOTE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"RENOQUOTE_LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			configureLogging(c.String("log-level"))
			return nil
		},

		Commands: []*cli.Command{
			estimateCommand(),
			serveCommand(),
			workerCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func configureLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	return config.Load(c.String("config"))
}

func estimateCommand() *cli.Command {
	return &cli.Command{
		Name:  "estimate",
		Usage: "Produce a single estimate and print it as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "room",
				Usage:    "Room type (kitchen, bathroom, bedroom, ...)",
				Required: true,
			},
			&cli.Float64Flag{
				Name:     "sqft",
				Usage:    "Square footage of the work area",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "tier",
				Value: string(domain.TierStandard),
				Usage: "Quality tier (budget, standard, premium, luxury)",
			},
			&cli.StringFlag{
				Name:     "zip",
				Usage:    "5-digit zip code",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "urgency",
				Value: string(domain.UrgencyStandard),
				Usage: "Urgency (flexible, standard, rush, emergency)",
			},
			&cli.StringSliceFlag{
				Name:  "material",
				Usage: "Preferred material (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "image",
				Usage: "Path to a site photo (repeatable)",
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "Free-text description of the work",
			},
			&cli.BoolFlag{
				Name:  "permits",
				Usage: "Include permit costs",
			},
		},
		Action: runEstimate,
	}
}

func runEstimate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := estimator.NewService(ctx, cfg.ClientConfig(),
		estimator.StaticCredentials(cfg.Provider.APIKey),
		estimator.WithTiers(cfg.ModelTiers()))
	if err != nil {
		return err
	}

	req, err := domain.NewEstimateRequest(
		domain.RoomType(c.String("room")),
		c.Float64("sqft"),
		domain.QualityTier(c.String("tier")),
	)
	if err != nil {
		return err
	}
	req.ZipCode = c.String("zip")
	req.Urgency = domain.Urgency(c.String("urgency"))
	req.Materials = c.StringSlice("material")
	req.NeedsPermits = c.Bool("permits")
	req.Description = c.String("description")

	for _, path := range c.StringSlice("image") {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read image %s: %w", path, err)
		}
		req.Images = append(req.Images, data)
	}

	est, err := svc.Estimate(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(est)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP estimation API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Listen address (overrides config)",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	addr := cfg.Server.ListenAddr
	if v := c.String("listen"); v != "" {
		addr = v
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := estimator.NewService(ctx, cfg.ClientConfig(),
		estimator.StaticCredentials(cfg.Provider.APIKey),
		estimator.WithTiers(cfg.ModelTiers()))
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewServer(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func workerCommand() *cli.Command {
	return &cli.Command{
		Name:  "worker",
		Usage: "Run a Temporal worker for the estimation pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "temporal-host",
				Usage: "Temporal frontend address (overrides config)",
			},
		},
		Action: runWorker,
	}
}

func runWorker(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	host := cfg.Temporal.HostPort
	if v := c.String("temporal-host"); v != "" {
		host = v
	}

	ctx, cancel := signalContext()
	defer cancel()

	slog.Info("starting worker", "temporal", host)
	return worker.Run(ctx, host, cfg.ClientConfig(),
		estimator.StaticCredentials(cfg.Provider.APIKey))
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
