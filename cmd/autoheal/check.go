package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"autoheal/cmd/autoheal/ui"
	"autoheal/internal/app"
	"autoheal/internal/heal"

	"github.com/spf13/cobra"
)

const checkReadyTimeout = 10 * time.Second

func checkCmd(c *cli) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate every container once and print the decisions",
		Long: `Evaluate every container once and print the decisions.

By default nothing is restarted. With --apply the pass restarts containers,
but it starts from an empty attempt table: containers the daemon has given
up on are restarted again, so do not run it on a schedule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts := checkOptions(apply)
			a, err := app.Wire(ctx, c.cfg, opts)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					slog.Warn("shutdown", "err", err)
				}
			}()

			readyCtx, cancel := context.WithTimeout(ctx, checkReadyTimeout)
			err = a.Runtime.WaitReady(readyCtx)
			cancel()
			if err != nil {
				return err
			}

			res, err := a.Supervisor.RunPass(ctx)
			if err != nil {
				return err
			}
			renderPass(cmd.OutOrStdout(), res, opts.DryRun)
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Restart containers and send notifications instead of only reporting")
	return cmd
}

func checkOptions(apply bool) app.Options {
	return app.Options{DryRun: !apply}
}

func renderPass(w io.Writer, res heal.PassResult, dryRun bool) {
	if len(res.Events) == 0 {
		fmt.Fprintln(w, ui.SuccessMsg("%d containers checked, nothing to heal", res.Evaluated))
	} else {
		rows := make([][]string, 0, len(res.Events))
		for _, ev := range res.Events {
			rows = append(rows, []string{
				ev.Container,
				eventLabel(ev.Kind, dryRun),
				reasonLabel(ev),
				attemptLabel(ev),
				policyLabel(ev),
				ev.Err,
			})
		}
		fmt.Fprintln(w, ui.Table([]string{"CONTAINER", "EVENT", "REASON", "ATTEMPT", "POLICY", "ERROR"}, rows))
	}

	fmt.Fprint(w, ui.KeyValues("",
		ui.KV("observed", strconv.Itoa(res.Observed)),
		ui.KV("evaluated", strconv.Itoa(res.Evaluated)),
		ui.KV("restarted", strconv.Itoa(res.Restarted)),
		ui.KV("failed", strconv.Itoa(res.Failed)),
		ui.KV("gave up", strconv.Itoa(res.GaveUp)),
		ui.KV("recovered", strconv.Itoa(res.Recovered)),
		ui.KV("duration", res.Duration.Round(time.Millisecond).String()),
	))
	if dryRun {
		fmt.Fprintln(w, ui.WarnMsg("dry run: no containers were restarted and no notifications were sent"))
	}
}

func eventLabel(kind heal.EventKind, dryRun bool) string {
	switch kind {
	case heal.EventRestarted:
		if dryRun {
			return ui.Warn("would restart")
		}
		return ui.Success(string(kind))
	case heal.EventRestartFailed, heal.EventGaveUp, heal.EventPassFailed:
		return ui.Error(string(kind))
	case heal.EventRecovered:
		return ui.Success(string(kind))
	default:
		return ui.Muted(string(kind))
	}
}

func reasonLabel(ev heal.Event) string {
	if ev.Reason == heal.ReasonNone {
		return ""
	}
	return ev.Reason.String()
}

func attemptLabel(ev heal.Event) string {
	switch ev.Kind {
	case heal.EventRestarted, heal.EventRestartFailed, heal.EventGaveUp:
		if ev.Policy == heal.PolicyAlways {
			return strconv.Itoa(ev.Attempt)
		}
		return fmt.Sprintf("%d/%d", ev.Attempt, ev.MaxAttempts)
	case heal.EventRecovered:
		return strconv.Itoa(ev.Attempt)
	default:
		return ""
	}
}

func policyLabel(ev heal.Event) string {
	switch ev.Kind {
	case heal.EventRecovered, heal.EventPassCompleted, heal.EventPassFailed:
		return ""
	default:
		return ev.Policy.String()
	}
}
