package main

import (
	"fmt"
	"os"

	"autoheal/cmd/autoheal/ui"
	"autoheal/internal/buildinfo"
	"autoheal/internal/config"
	"autoheal/internal/logging"

	"github.com/spf13/cobra"
)

func main() {
	if err := logging.Configure(logging.LevelInfo); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// cli carries state resolved by the root command for subcommands.
type cli struct {
	configPath string
	debug      bool
	noColor    bool
	cfg        config.Config
}

func rootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:           "autoheal",
		Short:         "Restart exited and unhealthy Docker containers",
		Version:       buildinfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath, os.Getenv)
			if err != nil {
				return err
			}
			c.cfg = cfg

			level := cfg.LogLevel
			if c.debug {
				level = logging.LevelDebug
			}
			if err := logging.Configure(level); err != nil {
				return err
			}
			ui.ConfigureColor(c.noColor)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), c.cfg)
		},
	}

	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(runCmd(c))
	cmd.AddCommand(checkCmd(c))
	cmd.AddCommand(historyCmd(c))
	cmd.AddCommand(versionCmd())
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the autoheal version",
		Args:  cobra.NoArgs,
		// Runs without loading config.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "autoheal "+buildinfo.Version)
		},
	}
}
