// Package serve implements the "serve" command running the HTTP server.
package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/asteroid-catalog/internal/api"
	"github.com/tphakala/asteroid-catalog/internal/conf"
	"github.com/tphakala/asteroid-catalog/internal/datastore"
	"github.com/tphakala/asteroid-catalog/internal/logger"
	"github.com/tphakala/asteroid-catalog/internal/observability"
	"github.com/tphakala/asteroid-catalog/internal/observability/metrics"
	"github.com/tphakala/asteroid-catalog/internal/securefs"
	"github.com/tphakala/asteroid-catalog/internal/votable"
)

// Command creates the serve command.
func Command(ctx *conf.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve VOTable exports and FITS downloads over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Run(sigCtx, ctx.Settings)
		},
	}

	cmd.Flags().String("listen", "", "Address to listen on, e.g. :8080")
	_ = viper.BindPFlag("webserver.listen", cmd.Flags().Lookup("listen"))

	return cmd
}

// Run serves until ctx is cancelled, then shuts the server down gracefully.
func Run(ctx context.Context, settings *conf.Settings) error {
	log := logger.Global().Module("serve")

	var m *observability.Metrics
	var recorder metrics.Recorder = metrics.NopRecorder{}
	if settings.Telemetry.Metrics.Enabled {
		var err error
		if m, err = observability.NewMetrics(); err != nil {
			return err
		}
		recorder = m.Datastore
	}

	store := datastore.New(settings, recorder)
	if err := store.Open(); err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close datastore", logger.Error(err))
		}
	}()

	files, err := securefs.New(settings.ProcessedDir())
	if err != nil {
		return err
	}
	defer func() { _ = files.Close() }()

	cfg := api.ConfigFromSettings(settings)
	opts := []api.ServerOption{api.WithLogger(log)}
	if m != nil {
		opts = append(opts, api.WithMetrics(m))
	}
	exporter := votable.NewExporter(store, files, cfg.PublicURL, nil)
	server, err := api.New(cfg, store, exporter, files, opts...)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		return server.Shutdown(gctx)
	})
	return g.Wait()
}
