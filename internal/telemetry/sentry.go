// Package telemetry wires opt-in Sentry error reporting into the errors
// package.
package telemetry

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/asteroid-catalog/internal/buildinfo"
	"github.com/tphakala/asteroid-catalog/internal/conf"
	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/logger"
)

// AppName prefixes the Sentry release identifier.
const AppName = "asteroid-catalog"

// FlushTimeout bounds how long Flush waits for queued events.
const FlushTimeout = 2 * time.Second

var initialized atomic.Bool

// Option adjusts the Sentry client options before Init.
type Option func(*sentry.ClientOptions)

// WithTransport replaces the HTTP transport, used by tests.
func WithTransport(t sentry.Transport) Option {
	return func(o *sentry.ClientOptions) { o.Transport = t }
}

// WithEnvironment overrides the "production" environment tag.
func WithEnvironment(env string) Option {
	return func(o *sentry.ClientOptions) { o.Environment = env }
}

// Init initializes Sentry when settings.Telemetry.Sentry is enabled and
// installs the error reporter. When disabled, reporting is switched off and
// Init returns nil.
func Init(settings *conf.Settings, build *buildinfo.Context, opts ...Option) error {
	log := logger.Global().Module("telemetry")
	sc := settings.Telemetry.Sentry

	if !sc.Enabled {
		errors.SetTelemetryReporter(nil)
		log.Debug("sentry telemetry is disabled")
		return nil
	}

	options := sentry.ClientOptions{
		Dsn:              sc.DSN,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      "production",
		ServerName:       "",
		Release:          build.Release(AppName),
		BeforeSend:       applyPrivacyFilters,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if err := sentry.Init(options); err != nil {
		return errors.New(fmt.Errorf("sentry initialization failed: %w", err)).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}
	initialized.Store(true)
	errors.SetTelemetryReporter(errors.NewSentryReporter(true))

	log.Info("sentry telemetry initialized",
		logger.String("release", options.Release),
		logger.String("environment", options.Environment))
	return nil
}

// Flush waits for queued events; call it before the process exits.
func Flush() {
	if initialized.Load() {
		sentry.Flush(FlushTimeout)
	}
}

// applyPrivacyFilters drops host and user identification from events.
func applyPrivacyFilters(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}
	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}
	return event
}
