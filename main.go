package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tphakala/asteroid-catalog/cmd"
	"github.com/tphakala/asteroid-catalog/internal/buildinfo"
	"github.com/tphakala/asteroid-catalog/internal/conf"
)

// Set by the linker: -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   string
	buildDate string
)

func main() {
	ctx := &conf.Context{
		Build: &buildinfo.Context{Version: version, BuildDate: buildDate},
	}

	rootCmd := cmd.RootCommand(ctx)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
