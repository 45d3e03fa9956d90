package main

import (
	"github.com/spf13/cobra"
)

func newGetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s := opts.store()
			task, err := s.GetTask(cmd.Context(), id)
			if err != nil {
				return describe(s, err)
			}

			if opts.json {
				return printJSON(cmd.OutOrStdout(), task)
			}
			return printTask(cmd.OutOrStdout(), task)
		},
	}
}
