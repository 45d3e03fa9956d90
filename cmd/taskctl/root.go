package main

import (
	"os"

	"github.com/phrazzld/task-manager-api/internal/client"
	"github.com/spf13/cobra"
)

const defaultAPIURL = "http://localhost:3001"

// globalOptions holds the flags shared by every subcommand.
type globalOptions struct {
	apiURL string
	json   bool
}

func (o *globalOptions) store() *client.Store {
	return client.NewStore(o.apiURL)
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "taskctl",
		Short:         "Manage tasks in the Task Manager API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	apiURL := os.Getenv("TASKAPI_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", apiURL, "Base URL of the API (env TASKAPI_API_URL)")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Print raw JSON")

	cmd.AddCommand(
		newListCmd(opts),
		newGetCmd(opts),
		newCreateCmd(opts),
		newUpdateCmd(opts),
		newDeleteCmd(opts),
		newStatsCmd(opts),
	)
	return cmd
}
