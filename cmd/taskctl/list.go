package main

import (
	"fmt"

	"github.com/phrazzld/task-manager-api/internal/client"
	"github.com/phrazzld/task-manager-api/internal/domain"
	"github.com/spf13/cobra"
)

func newListCmd(opts *globalOptions) *cobra.Command {
	var (
		status string
		f      client.Filters
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long:  `List one page of tasks, optionally filtered by status and sorted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.Status = domain.TaskStatus(status)

			s := opts.store()
			if err := s.FetchTasks(cmd.Context(), f); err != nil {
				return describe(s, err)
			}

			state := s.State()
			out := cmd.OutOrStdout()
			if opts.json {
				return printJSON(out, map[string]any{"tasks": state.Tasks, "pagination": state.Pagination})
			}
			if err := printTasks(out, state.Tasks); err != nil {
				return err
			}
			if p := state.Pagination; p != nil && p.TotalItems > 0 {
				_, err := fmt.Fprintf(out, "\nPage %d of %d (%d tasks)\n", p.CurrentPage, p.TotalPages, p.TotalItems)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (pending|in_progress|completed)")
	cmd.Flags().StringVar(&f.SortBy, "sort-by", "", "Sort field (created_at|updated_at|due_date|title|status)")
	cmd.Flags().StringVar(&f.SortOrder, "sort-order", "", "Sort order (asc|desc)")
	cmd.Flags().IntVarP(&f.Page, "page", "p", 0, "Page number")
	cmd.Flags().IntVarP(&f.Limit, "limit", "l", 0, "Tasks per page")
	return cmd
}
