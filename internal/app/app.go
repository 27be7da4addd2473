package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"autoheal/internal/adapter/docker"
	"autoheal/internal/adapter/sqlite"
	"autoheal/internal/adapter/webhook"
	"autoheal/internal/config"
	"autoheal/internal/heal"
	"autoheal/internal/metrics"
	"autoheal/internal/telemetry"
)

const (
	// JournalRetention is how long journal rows are kept across restarts.
	JournalRetention = 30 * 24 * time.Hour

	slowPassThreshold = 30 * time.Second
)

// App holds the production components behind a Supervisor.
type App struct {
	Config     config.Config
	Supervisor *heal.Supervisor
	Runtime    *docker.Runtime
	Journal    *sqlite.Journal  // nil when the journal is disabled
	Metrics    *metrics.Metrics // nil when metrics_addr is empty

	telemetry *telemetry.Provider
}

// Options tweak wiring for one-shot commands.
type Options struct {
	DryRun bool
}

// Wire builds the docker runtime, journal, metrics, notifier and supervisor
// described by cfg, pruning expired journal rows under ctx. A journal that
// cannot be opened is logged and left out. The caller must Close the result.
func Wire(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}

	rt, err := docker.NewRuntime()
	if err != nil {
		return nil, err
	}
	rt.RestartTimeout = cfg.RestartTimeout

	a := &App{
		Config:    cfg,
		Runtime:   rt,
		telemetry: telemetry.NewProvider(slog.Default(), slowPassThreshold),
	}

	var recorders []heal.Recorder
	if cfg.StateDB != "" && !opts.DryRun {
		j, err := sqlite.OpenJournal(cfg.StateDB)
		if err != nil {
			slog.Warn("journal unavailable, continuing without it", "path", cfg.StateDB, "err", err)
		} else {
			a.Journal = j
			recorders = append(recorders, j)
			if err := a.PruneJournal(ctx); err != nil {
				slog.Warn("prune journal failed", "err", err)
			}
		}
	}
	if cfg.MetricsAddr != "" && !opts.DryRun {
		a.Metrics = metrics.New()
		recorders = append(recorders, a.Metrics)
	}

	a.Supervisor = &heal.Supervisor{
		Settings:  settings,
		Runtime:   rt,
		Notifier:  webhook.New(cfg.WebhookURL),
		Recorders: recorders,
		Tracer:    a.telemetry.Tracer("autoheal/heal"),
		Clock:     heal.RealClock{},
		DryRun:    opts.DryRun,
	}
	return a, nil
}

// PruneJournal drops journal rows older than JournalRetention.
func (a *App) PruneJournal(ctx context.Context) error {
	if a.Journal == nil {
		return nil
	}
	n, err := a.Journal.Prune(ctx, time.Now().Add(-JournalRetention))
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("pruned journal", "rows", n, "retention", JournalRetention)
	}
	return nil
}

func (a *App) Close() error {
	var errs []error
	if a.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
		}
	}
	if a.Journal != nil {
		if err := a.Journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close journal: %w", err))
		}
	}
	if a.Runtime != nil {
		if err := a.Runtime.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close docker client: %w", err))
		}
	}
	return errors.Join(errs...)
}
