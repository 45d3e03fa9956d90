package main

import (
	"fmt"

	"github.com/phrazzld/task-manager-api/internal/client"
	"github.com/phrazzld/task-manager-api/internal/domain"
	"github.com/spf13/cobra"
)

func newCreateCmd(opts *globalOptions) *cobra.Command {
	var title, description, status, due string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := client.CreateRequest{
				Title:  title,
				Status: domain.TaskStatus(status),
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}
			if due != "" {
				d, err := parseDue(due)
				if err != nil {
					return err
				}
				req.DueDate = &d
			}

			s := opts.store()
			task, err := s.CreateTask(cmd.Context(), req)
			if err != nil {
				return describe(s, err)
			}

			if opts.json {
				return printJSON(cmd.OutOrStdout(), task)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "✓ Task created: %s\n", task.ID)
			return err
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Task title (required)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")
	cmd.Flags().StringVarP(&status, "status", "s", "", "Initial status (default pending)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD or RFC 3339)")
	if err := cmd.MarkFlagRequired("title"); err != nil {
		panic(fmt.Sprintf("Failed to mark title flag as required: %v", err))
	}
	return cmd
}
