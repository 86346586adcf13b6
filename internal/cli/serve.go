package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/matjip/internal/entrypoint"
)

func newServeCommand(flags *globalFlags, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default if no command given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(flags, version)
		},
	}
}

func runServe(flags *globalFlags, version string) error {
	cfg, logger, err := flags.load()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	return entrypoint.Run(cfg, version, logger)
}
