// conf/validate.go

package conf

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/tphakala/asteroid-catalog/internal/errors"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ErrorCategory classifies the aggregate as a configuration problem
func (ve ValidationError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryConfiguration
}

// ValidateSettings validates the entire Settings struct, collecting every problem.
// Database type is normalised to lower case.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) error{
		validateMainSettings,
		validateIngestSettings,
		validateLookupSettings,
		validateDatabaseSettings,
		validateWebServerSettings,
		validateTelemetrySettings,
	}
	for _, validate := range validators {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateMainSettings(settings *Settings) error {
	if _, err := settings.Location(); err != nil {
		return fmt.Errorf("main.timezone %q is not a known time zone", settings.Main.Timezone)
	}
	return nil
}

func validateIngestSettings(settings *Settings) error {
	if strings.TrimSpace(settings.Ingest.SourceDir) == "" {
		return errors.NewStd("ingest.sourcedir must be set")
	}
	if filepathHasTraversal(settings.Ingest.ProcessedDir) {
		return fmt.Errorf("ingest.processeddir must not contain '..': %s", settings.Ingest.ProcessedDir)
	}
	return nil
}

func validateLookupSettings(settings *Settings) error {
	lookup := &settings.Lookup
	if !lookup.Enabled {
		return nil
	}

	var errs []string
	if u, err := url.Parse(lookup.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("lookup.baseurl %q is not an absolute URL", lookup.BaseURL))
	}
	if lookup.Timeout <= 0 || lookup.Timeout > 5*time.Minute {
		errs = append(errs, fmt.Sprintf("lookup.timeout must be between 0 and 5m, got %s", lookup.Timeout))
	}
	if lookup.CacheTTL < 0 {
		errs = append(errs, "lookup.cachettl must not be negative")
	}
	if lookup.RateLimit <= 0 {
		errs = append(errs, fmt.Sprintf("lookup.ratelimit must be positive, got %v", lookup.RateLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("lookup settings errors: %v", errs)
	}
	return nil
}

func validateDatabaseSettings(settings *Settings) error {
	db := &settings.Database
	db.Type = strings.ToLower(strings.TrimSpace(db.Type))

	switch db.Type {
	case "", DatabaseSQLite:
		db.Type = DatabaseSQLite
		if db.SQLite.Path == "" {
			return errors.NewStd("database.sqlite.path must be set")
		}
	case DatabaseMySQL:
		if db.MySQL.Host == "" || db.MySQL.Database == "" || db.MySQL.Username == "" {
			return errors.NewStd("database.mysql host, username and database must be set")
		}
	default:
		return fmt.Errorf("database.type must be sqlite or mysql, got %q", db.Type)
	}
	return nil
}

func validateWebServerSettings(settings *Settings) error {
	ws := &settings.WebServer
	if _, _, err := net.SplitHostPort(ws.Listen); err != nil {
		return fmt.Errorf("webserver.listen %q is not host:port", ws.Listen)
	}
	if u, err := url.Parse(ws.PublicURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("webserver.publicurl %q is not an absolute URL", ws.PublicURL)
	}
	return nil
}

func validateTelemetrySettings(settings *Settings) error {
	if settings.Telemetry.Sentry.Enabled && settings.Telemetry.Sentry.DSN == "" {
		return errors.NewStd("telemetry.sentry.dsn is required when sentry is enabled")
	}
	return nil
}
