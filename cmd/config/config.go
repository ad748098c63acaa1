// Package config implements the "config" command group.
package config

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tphakala/asteroid-catalog/internal/conf"
	"github.com/tphakala/asteroid-catalog/internal/errors"
)

// Command creates the config command and its subcommands.
func Command(ctx *conf.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "save <path>",
		Short: "Write the effective configuration to a file",
		Long: "Write the configuration in effect, with the config file, CATALOG_* " +
			"environment variables and flags merged, as YAML to path.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Save(ctx.Settings, args[0], cmd.OutOrStdout())
		},
	})

	return cmd
}

// Save writes settings to path atomically.
func Save(settings *conf.Settings, path string, out io.Writer) error {
	if settings == nil {
		return errors.Newf("settings are not loaded").
			Component("config").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := conf.SaveYAMLConfig(path, settings); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote configuration to %s\n", path)
	return nil
}
