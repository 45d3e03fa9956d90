package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s := opts.store()
			if err := s.DeleteTask(cmd.Context(), id); err != nil {
				return describe(s, err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "✓ Task deleted: %s\n", id)
			return err
		},
	}
}
