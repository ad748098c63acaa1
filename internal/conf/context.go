package conf

import "github.com/tphakala/asteroid-catalog/internal/buildinfo"

// Context is shared by the CLI commands. Settings is nil until the root
// command has loaded the configuration.
type Context struct {
	Settings *Settings
	Build    *buildinfo.Context
}
