// Package buildinfo carries build-time metadata injected by the linker.
package buildinfo

import "fmt"

// UnknownValue is reported for metadata the build did not set.
const UnknownValue = "unknown"

// Context contains build-time metadata that is not user-configurable.
type Context struct {
	Version   string // git tag
	BuildDate string
}

// GetVersion returns the version or UnknownValue.
func (c *Context) GetVersion() string {
	if c == nil || c.Version == "" {
		return UnknownValue
	}
	return c.Version
}

// GetBuildDate returns the build date or UnknownValue.
func (c *Context) GetBuildDate() string {
	if c == nil || c.BuildDate == "" {
		return UnknownValue
	}
	return c.BuildDate
}

// Release is the identifier attached to telemetry events.
func (c *Context) Release(app string) string {
	return fmt.Sprintf("%s@%s", app, c.GetVersion())
}

// String formats the context for the version command.
func (c *Context) String() string {
	return fmt.Sprintf("version %s, built %s", c.GetVersion(), c.GetBuildDate())
}
