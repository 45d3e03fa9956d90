package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/phrazzld/task-manager-api/internal/domain"
	"github.com/spf13/cobra"
)

func newStatsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task counts by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := opts.store()
			stats, err := s.Stats(cmd.Context())
			if err != nil {
				return describe(s, err)
			}

			if opts.json {
				return printJSON(cmd.OutOrStdout(), stats)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Total:\t%d\n", stats.Total)
			for _, st := range domain.TaskStatuses() {
				fmt.Fprintf(tw, "%s:\t%d\n", st, stats.ByStatus[st])
			}
			fmt.Fprintf(tw, "Overdue:\t%d\n", stats.Overdue)
			return tw.Flush()
		},
	}
}
