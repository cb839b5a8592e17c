package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/cory-johannsen/idlerpg/internal/storage/sqlite"
)

func newHistoryCmd(g *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [batch-id]",
		Short: "Show archived simulation reports",
		Long: `Without arguments, list the most recent archived batches.
With a batch ID, print that batch's full report.

Examples:
  balancesim history
  balancesim history --limit 50
  balancesim history 0b6f8c1e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, _, err := g.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			archive, err := g.openArchive(cfg)
			if err != nil {
				return err
			}
			defer archive.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				rep, err := archive.Get(cmd.Context(), args[0])
				if errors.Is(err, sqlite.ErrReportNotFound) {
					return fmt.Errorf("no archived batch %q", args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprint(out, rep.Text())
				return nil
			}

			headers, err := archive.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(headers) == 0 {
				fmt.Fprintln(out, "No archived batches yet.")
				fmt.Fprintln(out, "Run 'balancesim run' to record the first one.")
				return nil
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("Batch", "Generated", "Base seed", "Runs", "Target zone", "Completion")
			for _, h := range headers {
				t.Row(
					h.BatchID,
					h.GeneratedAt.Local().Format(time.DateTime),
					strconv.FormatUint(h.BaseSeed, 10),
					strconv.FormatUint(uint64(h.Runs), 10),
					strconv.FormatUint(uint64(h.TargetZone), 10),
					strconv.FormatFloat(h.CompletionRate, 'f', 1, 64)+"%",
				)
			}
			fmt.Fprintln(out, t.String())
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum batches to list")
	return cmd
}
