package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mrlokans/matjip/internal/config"
	"github.com/mrlokans/matjip/internal/logging"
)

// globalFlags override values loaded from the environment.
type globalFlags struct {
	databasePath string
	storeBackend string
	verbose      bool
}

func (f *globalFlags) load() (*config.Config, *zap.Logger, error) {
	cfg := config.NewConfig()
	if f.databasePath != "" {
		cfg.Database.Path = f.databasePath
	}
	if f.storeBackend != "" {
		cfg.Store.Backend = config.StoreBackend(f.storeBackend)
	}
	if f.verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// NewRootCommand builds the matjip command tree. Running it without a
// subcommand starts the HTTP server.
func NewRootCommand(version string) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "matjip",
		Short:         "Daegu restaurant directory with visit and bookmark tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(flags, version)
		},
	}
	root.PersistentFlags().StringVar(&flags.databasePath, "db", "", "Path to the SQLite database (overrides DATABASE_PATH)")
	root.PersistentFlags().StringVar(&flags.storeBackend, "store", "", "Document store backend: sqlite, firestore or memory (overrides STORE_BACKEND)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newServeCommand(flags, version),
		newSyncCommand(flags),
		newSyncStatusCommand(flags),
		newCreateUserCommand(flags),
		newVersionCommand(version),
	)
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute(version string) {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
