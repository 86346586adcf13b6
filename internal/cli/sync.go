package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/matjip/internal/entrypoint"
	"github.com/mrlokans/matjip/internal/services"
)

const statusEntries = 10

// SyncCommand refreshes the restaurant cache from the Daegu open data API.
type SyncCommand struct {
	Force bool
}

func newSyncCommand(flags *globalFlags) *cobra.Command {
	sc := &SyncCommand{}
	cmd := &cobra.Command{
		Use:   "sync [--force]",
		Short: "Refresh the restaurant cache when it is older than 7 days",
		Long: "Fetch every region from the Daegu open data API and cache restaurants that are not cached yet.\n" +
			"Without --force nothing happens while the last sync is less than 7 days old.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(ctx context.Context, app *entrypoint.App) error {
				return sc.Run(ctx, cmd.OutOrStdout(), app.Sync)
			})
		},
	}
	cmd.Flags().BoolVarP(&sc.Force, "force", "f", false, "Sync even when the cache is fresh")
	return cmd
}

// Syncer is implemented by *services.SyncService.
type Syncer interface {
	SyncIfNeeded(ctx context.Context) (services.SyncOutcome, error)
	SyncAll(ctx context.Context) (services.SyncResult, error)
}

func (sc *SyncCommand) Run(ctx context.Context, out io.Writer, syncer Syncer) error {
	fmt.Fprintln(out, "Restaurant Sync")
	fmt.Fprintln(out, "===============")

	if sc.Force {
		res, err := syncer.SyncAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Fetched %d restaurants, %d new\n", res.Total, res.New)
		return nil
	}

	outcome, err := syncer.SyncIfNeeded(ctx)
	if err != nil {
		return err
	}
	if !outcome.Synced {
		fmt.Fprintln(out, "Cache is fresh, nothing to do (use --force to sync anyway)")
		return nil
	}
	fmt.Fprintf(out, "Fetched %d restaurants, %d new\n", outcome.Result.Total, outcome.Result.New)
	return nil
}

func newSyncStatusCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-status",
		Short: "Show the last restaurant syncs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(ctx context.Context, app *entrypoint.App) error {
				st, err := app.Sync.Status(ctx, statusEntries)
				if err != nil {
					return err
				}
				printStatus(cmd.OutOrStdout(), st)
				return nil
			})
		},
	}
}

func printStatus(out io.Writer, st services.Status) {
	if st.LastSyncedAt == nil {
		fmt.Fprintln(out, "Never synced")
		return
	}
	state := "fresh"
	if st.Stale {
		state = "stale"
	}
	fmt.Fprintf(out, "Last sync: %s (%s)\n", st.LastSyncedAt.Local().Format(time.RFC3339), state)
	fmt.Fprintln(out)
	for _, e := range st.Recent {
		fmt.Fprintf(out, "  %s  total=%d new=%d\n", e.SyncedAt.Local().Format(time.RFC3339), e.Total, e.New)
	}
}

// withApp loads the configuration, bootstraps the stores and runs fn.
func withApp(flags *globalFlags, fn func(ctx context.Context, app *entrypoint.App) error) error {
	cfg, logger, err := flags.load()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	app, err := entrypoint.Bootstrap(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}
