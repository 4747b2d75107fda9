package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/telelab"
	"github.com/aretw0/telelab/internal/config"
	"github.com/aretw0/telelab/internal/presentation/tui"
	"github.com/aretw0/telelab/pkg/observability"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	Module     int // -1 keeps the stored module
	Experiment int
	AutoStart  bool
	Quiet      bool
}

// Execute handles the 'run' command: it builds a client from cfg and runs an
// interactive session on stdin/stdout until quit or a signal.
func Execute(cfg config.Config, opts RunOptions) error {
	logger, closeLog, err := NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	if !opts.Quiet {
		tui.PrintBanner(os.Stdout)
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	metrics := observability.NewMetrics()
	client, err := NewClient(cfg, logger, telelab.WithLifecycleHooks(metrics.Hooks()))
	if err != nil {
		return err
	}
	defer client.Close()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := Serve(sigCtx, cfg.MetricsAddr, metrics.Handler(), logger); err != nil {
				logger.Error("Metrics server failed", "addr", cfg.MetricsAddr, "err", err)
			}
		}()
	}

	runErr := RunSession(sigCtx, client, opts, os.Stdin, os.Stdout)
	if runErr == nil && sigCtx.Err() != nil {
		runErr = sigCtx.Err()
	}
	logCompletion(os.Stdout, runErr, sigCtx.Signal())

	if err := handleExecutionError(runErr); err != nil {
		return fmt.Errorf("session failed: %w", err)
	}
	return nil
}
