package main

import (
	"errors"
	"fmt"

	"github.com/phrazzld/task-manager-api/internal/client"
	"github.com/phrazzld/task-manager-api/internal/domain"
	"github.com/spf13/cobra"
)

func newUpdateCmd(opts *globalOptions) *cobra.Command {
	var (
		title, description, status, due string
		clearDescription, clearDue       bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			req := client.UpdateRequest{
				ClearDescription: clearDescription,
				ClearDueDate:     clearDue,
			}
			if flags.Changed("title") {
				req.Title = &title
			}
			if flags.Changed("description") {
				req.Description = &description
			}
			if flags.Changed("status") {
				st := domain.TaskStatus(status)
				req.Status = &st
			}
			if flags.Changed("due") {
				d, err := parseDue(due)
				if err != nil {
					return err
				}
				req.DueDate = &d
			}
			if req == (client.UpdateRequest{}) {
				return errors.New("nothing to update: pass at least one field flag")
			}

			s := opts.store()
			task, err := s.UpdateTask(cmd.Context(), id, req)
			if err != nil {
				return describe(s, err)
			}

			if opts.json {
				return printJSON(cmd.OutOrStdout(), task)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "✓ Task updated: %s\n", task.ID)
			return err
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVarP(&status, "status", "s", "", "New status")
	cmd.Flags().StringVar(&due, "due", "", "New due date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().BoolVar(&clearDescription, "clear-description", false, "Remove the description")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the due date")
	cmd.MarkFlagsMutuallyExclusive("description", "clear-description")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	return cmd
}
