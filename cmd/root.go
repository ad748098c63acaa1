// Package cmd assembles the catalog command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	configcmd "github.com/tphakala/asteroid-catalog/cmd/config"
	"github.com/tphakala/asteroid-catalog/cmd/export"
	"github.com/tphakala/asteroid-catalog/cmd/ingest"
	"github.com/tphakala/asteroid-catalog/cmd/inspect"
	"github.com/tphakala/asteroid-catalog/cmd/mappings"
	"github.com/tphakala/asteroid-catalog/cmd/serve"
	"github.com/tphakala/asteroid-catalog/internal/conf"
	"github.com/tphakala/asteroid-catalog/internal/logger"
	"github.com/tphakala/asteroid-catalog/internal/telemetry"
)

// centralLogger is replaced once settings are loaded and closed on exit.
var centralLogger *logger.CentralLogger

// RootCommand creates and returns the root command
func RootCommand(ctx *conf.Context) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Asteroid observation catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, &configPath); err != nil {
		panic(err)
	}

	versionCmd := versionCommand(ctx)
	inspectCmd := inspect.Command()
	subcommands := []*cobra.Command{
		ingest.Command(ctx),
		serve.Command(ctx),
		export.Command(ctx),
		mappings.Command(ctx),
		configcmd.Command(ctx),
		inspectCmd,
		versionCmd,
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Commands that only read their arguments need no configuration
		if cmd == versionCmd || cmd == inspectCmd {
			return nil
		}
		if configPath != "" {
			conf.SetConfigFile(configPath)
		}
		return initialize(ctx)
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		telemetry.Flush()
		if centralLogger != nil {
			_ = centralLogger.Close()
		}
	}

	return rootCmd
}

// initialize loads settings and sets up logging and telemetry before any
// subcommand runs.
func initialize(ctx *conf.Context) error {
	settings, err := conf.Load()
	if err != nil {
		return err
	}
	ctx.Settings = settings

	logging := settings.Logging
	if settings.Debug {
		logging.DefaultLevel = "debug"
		if logging.Console != nil {
			console := *logging.Console
			console.Level = "debug"
			logging.Console = &console
		}
	}
	cl, err := logger.NewCentralLogger(&logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(cl)
	centralLogger = cl

	return telemetry.Init(settings, ctx.Build)
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, configPath *string) error {
	rootCmd.PersistentFlags().StringVarP(configPath, "config", "c", "", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug output")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}

func versionCommand(ctx *conf.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "catalog %s\n", ctx.Build)
		},
	}
}
