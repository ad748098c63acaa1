// Package export implements the "export" command writing the VOTable
// document of one observation.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tphakala/asteroid-catalog/internal/api"
	"github.com/tphakala/asteroid-catalog/internal/conf"
	"github.com/tphakala/asteroid-catalog/internal/datastore"
	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/securefs"
	"github.com/tphakala/asteroid-catalog/internal/votable"
)

// Command creates the export command.
func Command(ctx *conf.Context) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <observation-id>",
		Short: "Write the VOTable document of an observation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil || id == 0 {
				return errors.Newf("invalid observation id %q", args[0]).
					Component("export").
					Category(errors.CategoryValidation).
					Build()
			}

			store := datastore.New(ctx.Settings, nil)
			if err := store.Open(); err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			files, err := securefs.New(ctx.Settings.ProcessedDir())
			if err != nil {
				return err
			}
			defer func() { _ = files.Close() }()

			publicURL := api.ConfigFromSettings(ctx.Settings).PublicURL
			exporter := votable.NewExporter(store, files, publicURL, nil)
			return Run(cmd.Context(), exporter, uint(id), afero.NewOsFs(), output, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of standard output")

	return cmd
}

// Exporter renders an observation.
type Exporter interface {
	Export(ctx context.Context, id uint) (*votable.Document, error)
}

// Run exports observation id to output on fs, or to stdout when output is
// empty.
func Run(ctx context.Context, exporter Exporter, id uint, fs afero.Fs, output string, stdout io.Writer) error {
	doc, err := exporter.Export(ctx, id)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		return err
	}

	if output == "" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := afero.WriteFile(fs, output, buf.Bytes(), 0o644); err != nil {
		return errors.FileError(err, output)
	}
	fmt.Fprintf(stdout, "wrote %s (%d bytes)\n", output, buf.Len())
	return nil
}
