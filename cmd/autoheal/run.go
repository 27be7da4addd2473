package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"autoheal/internal/app"
	"autoheal/internal/config"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func runCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Supervise containers until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), c.cfg)
		},
	}
}

func runDaemon(parent context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Wire(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("shutdown", "err", err)
		}
	}()

	if err := a.Runtime.WaitReady(ctx); err != nil {
		return ignoreCanceled(err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if a.Metrics != nil {
		g.Go(func() error {
			return a.Metrics.Serve(gctx, cfg.MetricsAddr)
		})
	}
	g.Go(func() error {
		return ignoreCanceled(a.Supervisor.Run(gctx))
	})
	err = g.Wait()
	slog.Info("autoheal stopped")
	return err
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
