package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gordian-engine/gtwdt/internal/ghttp"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func NewStatusCmd(log *slog.Logger) *cobra.Command {
	var (
		addr  string
		limit int
	)

	cmd := &cobra.Command{
		Use: "status",

		Short: "Print participants and recent recoveries of a running demo",

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := ghttp.Client{BaseURL: addr}

			ps, err := c.Participants(ctx)
			if err != nil {
				return err
			}
			rs, err := c.Recoveries(ctx, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			pt := tablewriter.NewWriter(out)
			pt.Header("Participant", "Reset this window", "Last reset", "Misses")
			for _, p := range ps {
				if err := pt.Append(p.Name, strconv.FormatBool(p.HasReset), formatTime(p.LastReset), strconv.Itoa(p.Misses)); err != nil {
					return fmt.Errorf("failed to add participant row: %w", err)
				}
			}
			if err := pt.Render(); err != nil {
				return err
			}

			if len(rs) == 0 {
				fmt.Fprintln(out, "\nNo recoveries recorded")
				return nil
			}

			fmt.Fprintln(out)
			rt := tablewriter.NewWriter(out)
			rt.Header("Seq", "At", "Participant", "Action")
			for _, r := range rs {
				name := r.Participant
				if !r.Captured {
					name = "(not captured)"
				}
				if err := rt.Append(strconv.FormatUint(r.Seq, 10), formatTime(r.At), name, r.Action); err != nil {
					return fmt.Errorf("failed to add recovery row: %w", err)
				}
			}
			return rt.Render()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "address of the status server")
	cmd.Flags().IntVar(&limit, "limit", 10, "most recent recoveries to show (0 for all)")

	return cmd
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}
