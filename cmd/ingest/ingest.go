// Package ingest implements the "ingest" command: one sweep of the source
// directory into the catalog.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/asteroid-catalog/internal/conf"
	"github.com/tphakala/asteroid-catalog/internal/datastore"
	"github.com/tphakala/asteroid-catalog/internal/httpclient"
	pipeline "github.com/tphakala/asteroid-catalog/internal/ingest"
	"github.com/tphakala/asteroid-catalog/internal/logger"
	"github.com/tphakala/asteroid-catalog/internal/observability/metrics"
	"github.com/tphakala/asteroid-catalog/internal/sbdb"
)

// Command creates the ingest command.
func Command(ctx *conf.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [source-dir]",
		Short: "Ingest FITS files from the source directory",
		Long: "Scan the source directory once, record every FITS file with a readable " +
			"DATE-OBS in the catalog and move it to the processed directory.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				ctx.Settings.Ingest.SourceDir = args[0]
			}
			summary, err := Run(cmd.Context(), ctx.Settings, afero.NewOsFs())
			if err != nil {
				return err
			}
			PrintSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	setupFlags(cmd)

	return cmd
}

// setupFlags defines flags specific to the ingest command.
func setupFlags(cmd *cobra.Command) {
	cmd.Flags().String("processed", "", "Directory ingested files are moved to")
	cmd.Flags().String("mapping", "", "CSV file of provisional to official designations")

	_ = viper.BindPFlag("ingest.processeddir", cmd.Flags().Lookup("processed"))
	_ = viper.BindPFlag("ingest.mappingfile", cmd.Flags().Lookup("mapping"))
}

// Run opens the datastore and the classification client described by
// settings and performs one sweep over fs.
func Run(ctx context.Context, settings *conf.Settings, fs afero.Fs) (pipeline.Summary, error) {
	log := logger.Global().Module("ingest")

	cfg, err := pipeline.ConfigFromSettings(settings)
	if err != nil {
		return pipeline.Summary{}, err
	}

	store := datastore.New(settings, nil)
	if err := store.Open(); err != nil {
		return pipeline.Summary{}, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close datastore", logger.Error(err))
		}
	}()

	opts := []pipeline.Option{pipeline.WithLogger(log)}
	if settings.Lookup.Enabled {
		classifier, closeFn, err := NewClassifier(settings, metrics.NopRecorder{})
		if err != nil {
			return pipeline.Summary{}, err
		}
		defer closeFn()
		opts = append(opts, pipeline.WithClassifier(classifier))
	}

	return pipeline.New(fs, cfg, store, opts...).Run(ctx)
}

// NewClassifier builds the SBDB client from settings. The returned function
// releases its HTTP connections.
func NewClassifier(settings *conf.Settings, recorder metrics.Recorder) (*sbdb.Client, func(), error) {
	hc := httpclient.New(&httpclient.Config{
		DefaultTimeout: settings.Lookup.Timeout,
		UserAgent:      settings.Lookup.UserAgent,
	})
	hc.SetAfterResponseHook(logLookup(logger.Global().Module("sbdb")))
	client, err := sbdb.NewClient(sbdb.Config{
		BaseURL:   settings.Lookup.BaseURL,
		Timeout:   settings.Lookup.Timeout,
		CacheTTL:  settings.Lookup.CacheTTL,
		RateLimit: settings.Lookup.RateLimit,
	}, hc, recorder, nil)
	if err != nil {
		hc.Close()
		return nil, nil, err
	}
	return client, hc.Close, nil
}

// logLookup returns a response hook that logs each SBDB round trip at debug level.
func logLookup(log logger.Logger) func(*http.Request, *http.Response, error, time.Duration) {
	return func(req *http.Request, resp *http.Response, err error, d time.Duration) {
		fields := []logger.Field{
			logger.String("host", req.URL.Host),
			logger.Duration("duration", d),
		}
		if err != nil {
			log.Debug("lookup request failed", append(fields, logger.Error(err))...)
			return
		}
		log.Debug("lookup response", append(fields, logger.Int("status", resp.StatusCode))...)
	}
}

// PrintSummary writes one line per file followed by the totals.
func PrintSummary(w io.Writer, s pipeline.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range s.Files {
		detail := f.Asteroid
		if f.Err != nil {
			detail = f.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name, f.State, detail)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\n%d files in %s: %d ingested (%d new, %d existing), %d bad date, %d not FITS, %d failed\n",
		s.Total(), s.Duration.Round(time.Millisecond), s.Ingested, s.ObservationsCreated, s.ObservationsExisting,
		s.SkippedBadDate, s.SkippedNotFITS, s.Failed)
	if s.Mappings >= 0 {
		fmt.Fprintf(w, "%d designation mappings loaded\n", s.Mappings)
	}
}
