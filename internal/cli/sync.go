package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nainya/assetlib/internal/config"
	"github.com/nainya/assetlib/pkg/library"
)

func newSyncCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Re-crawl a library root and update its document",
		Example: `  assetlib sync --library props
  assetlib sync --root ./assets
  assetlib sync --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var targets []config.LibraryConfig
			if all {
				targets = a.cfg.Libraries
				if len(targets) == 0 {
					return fmt.Errorf("no library configured")
				}
			} else {
				lc, err := a.libraryConfig()
				if err != nil {
					return err
				}
				targets = []config.LibraryConfig{lc}
			}

			reports, err := a.syncLibraries(cmd.Context(), targets, nil)
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), reports, func(w io.Writer) error {
				for _, r := range reports {
					fmt.Fprintf(w, "%s: %d crawled, %d pruned, %d total in %s\n",
						r.Library, r.Crawled, r.Pruned, r.Total, r.Elapsed)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Sync every configured library concurrently")
	return cmd
}

// syncLibraries syncs each library on its own index. Reports keep the order
// of targets. done, when set, sees the outcome of every library.
func (a *app) syncLibraries(ctx context.Context, targets []config.LibraryConfig, done func(string, library.SyncReport, error)) ([]library.SyncReport, error) {
	reports := make([]library.SyncReport, len(targets))
	g, ctx := errgroup.WithContext(ctx)

	progress := func(name string) library.ProgressFunc {
		return func(message string, percent float64) {
			a.log.Debug("Sync progress").
				Str("library", name).
				Str("step", message).
				Float64("percent", percent).
				Send()
		}
	}

	for i, lc := range targets {
		g.Go(func() error {
			lib, err := a.newLibrary(lc)
			if err != nil {
				return err
			}
			report, err := lib.Sync(ctx, progress(lc.Name))
			if done != nil {
				done(lc.Name, report, err)
			}
			if err != nil {
				return fmt.Errorf("sync %s: %w", lc.Name, err)
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
