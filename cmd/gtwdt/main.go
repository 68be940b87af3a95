// Command gtwdt runs the task watchdog recovery demo.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func main() {
	if err := mainE(); err != nil {
		os.Exit(1)
	}
}

func mainE() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	root := NewRootCmd(logger)
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Info("Failure", "err", err)
		os.Stderr.Sync()
		return err
	}

	return nil
}

func NewRootCmd(log *slog.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use: "gtwdt SUBCOMMAND",

		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},

		SilenceUsage: true,

		Long: `gtwdt demonstrates a task watchdog with interrupt-style failure handoff.

Participant tasks check in with a shared watchdog on a scripted schedule
that deliberately skips check-ins. When a watchdog window expires with an
overdue participant, a non-blocking hook wakes the recovery coordinator,
which reads the watchdog diagnostics and blinks the failed participant's
indicator.

  $ gtwdt schedule                 # print the participant schedule
  $ gtwdt run --variant multi      # run the demo with simulated indicators
  $ gtwdt run --http-addr :8080    # also serve status and metrics
  $ gtwdt status --addr :8080      # query a running demo

Every run flag can also be set through a GTWDT_ environment variable,
such as GTWDT_TIMEOUT=2s, or through a config file given with --config.
`,
	}

	rootCmd.AddCommand(
		NewRunCmd(log),
		NewScheduleCmd(log),
		NewStatusCmd(log),
	)

	return rootCmd
}
