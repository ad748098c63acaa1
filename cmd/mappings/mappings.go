// Package mappings implements the "mappings" command group managing the
// provisional to official designation file.
package mappings

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tphakala/asteroid-catalog/internal/conf"
	"github.com/tphakala/asteroid-catalog/internal/designation"
	"github.com/tphakala/asteroid-catalog/internal/httpclient"
	"github.com/tphakala/asteroid-catalog/internal/logger"
)

// Command creates the mappings command and its subcommands.
func Command(ctx *conf.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Manage designation mappings",
	}
	cmd.AddCommand(fetchCommand(ctx), resolveCommand(ctx))
	return cmd
}

// FetchOptions selects the page to scrape and where the pairs go.
type FetchOptions struct {
	URL    string
	Output string
	Append bool
}

func fetchCommand(ctx *conf.Context) *cobra.Command {
	var opts FetchOptions

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Scrape designation pairs from a web page into the mapping file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.URL == "" {
				opts.URL = ctx.Settings.Mappings.URL
			}
			if opts.Output == "" {
				opts.Output = ctx.Settings.Ingest.MappingFile
			}

			client := httpclient.New(&httpclient.Config{
				DefaultTimeout: ctx.Settings.Lookup.Timeout,
				UserAgent:      ctx.Settings.Lookup.UserAgent,
			})
			defer client.Close()

			return Fetch(cmd.Context(), client, afero.NewOsFs(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "", "Page listing \"official = provisional\" pairs")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "CSV file to write, defaults to ingest.mappingfile")
	cmd.Flags().BoolVarP(&opts.Append, "append", "a", false, "Append to the file instead of replacing it")

	return cmd
}

// Fetch downloads opts.URL and writes the pairs found there.
func Fetch(ctx context.Context, client designation.Getter, fs afero.Fs, opts FetchOptions, stdout io.Writer) error {
	pairs, err := designation.FetchMappings(ctx, client, opts.URL)
	if err != nil {
		return err
	}
	if err := designation.WriteMappings(fs, opts.Output, pairs, opts.Append); err != nil {
		return err
	}

	logger.Global().Module("designation").Info("designation mappings written",
		logger.String("url", opts.URL),
		logger.String("path", opts.Output),
		logger.Int("pairs", len(pairs)),
		logger.Bool("append", opts.Append))
	fmt.Fprintf(stdout, "wrote %d mappings to %s\n", len(pairs), opts.Output)
	return nil
}

func resolveCommand(ctx *conf.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <designation>...",
		Short: "Show how provisional designations resolve against the mapping file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := designation.LoadMapping(afero.NewOsFs(), ctx.Settings.Ingest.MappingFile,
				logger.Global().Module("designation"))
			if err != nil {
				return err
			}
			Resolve(cmd.OutOrStdout(), m, args)
			return nil
		},
	}
}

// Resolve prints the status and official name of each provisional name.
func Resolve(w io.Writer, m designation.Mapping, names []string) {
	for _, name := range names {
		official, ok, status := designation.Resolve(name, m)
		if !ok {
			official = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, status, official)
	}
}
