package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gordian-engine/gtwdt/gparticipant"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func NewScheduleCmd(log *slog.Logger) *cobra.Command {
	var iterations int

	cmd := &cobra.Command{
		Use: "schedule",

		Short: "Print the participant check-in schedule",

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			if iterations <= 0 {
				return fmt.Errorf("--iterations must be positive (got %d)", iterations)
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Iteration", "Action", "Next counter", "Indicator")

			counter := 0
			for range iterations {
				s := gparticipant.Next(counter)
				counter = s.Counter

				if err := table.Append(
					strconv.Itoa(s.Iteration),
					stepAction(s),
					strconv.Itoa(s.Counter),
					onOff(s.IndicatorOn()),
				); err != nil {
					return fmt.Errorf("failed to add schedule row: %w", err)
				}
			}

			return table.Render()
		},
	}

	cmd.Flags().IntVar(&iterations, "iterations", 31, "number of iterations to print")

	return cmd
}

func stepAction(s gparticipant.Step) string {
	switch {
	case s.CheckIn && s.Counter == 0:
		return "check in, wrap"
	case s.CheckIn:
		return "check in"
	case s.Warn:
		return "skip (warn)"
	default:
		return "skip"
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
