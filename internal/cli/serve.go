package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nainya/assetlib/internal/config"
	"github.com/nainya/assetlib/internal/server"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Sync every configured library periodically and expose metrics over HTTP",
		Example: `  assetlib serve --addr :9090 --interval 10m`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(a.cfg.Libraries) == 0 {
				return fmt.Errorf("no library configured")
			}
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", interval)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.NewObservabilityServer(addr, a.reg, a.log)
			g, ctx := errgroup.WithContext(ctx)

			g.Go(srv.Start)
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			g.Go(func() error {
				return a.syncLoop(ctx, srv, interval)
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":9090", "Listen address for /metrics, /health and /ready")
	cmd.Flags().DurationVar(&interval, "interval", 10*time.Minute, "Time between sync passes")
	return cmd
}

// syncLoop syncs the libraries one after another every interval until ctx
// is done. A failed sync is logged and retried on the next pass.
func (a *app) syncLoop(ctx context.Context, srv *server.ObservabilityServer, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for _, lc := range a.cfg.Libraries {
			_, err := a.syncLibraries(ctx, []config.LibraryConfig{lc}, srv.RecordSync)
			if ctx.Err() != nil {
				return nil
			}
			if err != nil {
				a.log.Warn("Sync failed").Str("library", lc.Name).Err(err).Send()
			}
		}
		srv.SetReady(true)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
