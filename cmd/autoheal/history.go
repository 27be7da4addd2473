package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"autoheal/cmd/autoheal/ui"
	"autoheal/internal/adapter/sqlite"
	"autoheal/internal/heal"

	"github.com/spf13/cobra"
)

func historyCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent restarts, failures and give-ups from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.StateDB == "" {
				return errors.New("journal disabled: set state_db or AUTOHEAL_STATE_DB")
			}
			j, err := sqlite.OpenJournal(c.cfg.StateDB)
			if err != nil {
				return err
			}
			defer j.Close()

			events, err := j.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), events)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Number of events to show")
	return cmd
}

func renderHistory(w io.Writer, events []heal.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, ui.InfoMsg("no events recorded"))
		return
	}
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		rows = append(rows, []string{
			ev.Time.Local().Format(time.DateTime),
			eventLabel(ev.Kind, false),
			ev.Container,
			reasonLabel(ev),
			attemptLabel(ev),
			ev.Err,
		})
	}
	fmt.Fprintln(w, ui.Table([]string{"TIME", "EVENT", "CONTAINER", "REASON", "ATTEMPT", "ERROR"}, rows))
}
