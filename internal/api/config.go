// Package api provides the HTTP server of the asteroid catalog. Route
// handlers live in the v1 subpackage.
package api

import (
	"time"

	"github.com/tphakala/asteroid-catalog/internal/conf"
	"github.com/tphakala/asteroid-catalog/internal/logger"
)

// GetLogger returns the api package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

// Default constants for the HTTP server.
const (
	DefaultListen          = ":8080"
	DefaultBodyLimit       = "1M"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 5 * time.Minute // large FITS downloads
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Config holds the HTTP server configuration.
type Config struct {
	Name      string // reported by /healthz
	Listen    string // address to listen on
	PublicURL string // base URL of generated links
	BodyLimit string // maximum request body size, e.g. "1M"

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	MetricsEnabled bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:            "asteroid-catalog",
		Listen:          DefaultListen,
		PublicURL:       "http://localhost:8080",
		BodyLimit:       DefaultBodyLimit,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		MetricsEnabled:  true,
	}
}

// ConfigFromSettings builds a Config from application settings.
func ConfigFromSettings(settings *conf.Settings) *Config {
	cfg := DefaultConfig()
	if settings.Main.Name != "" {
		cfg.Name = settings.Main.Name
	}
	if settings.WebServer.Listen != "" {
		cfg.Listen = settings.WebServer.Listen
	}
	if settings.WebServer.PublicURL != "" {
		cfg.PublicURL = settings.WebServer.PublicURL
	}
	if settings.WebServer.BodyLimit != "" {
		cfg.BodyLimit = settings.WebServer.BodyLimit
	}
	cfg.MetricsEnabled = settings.Telemetry.Metrics.Enabled
	return cfg
}
