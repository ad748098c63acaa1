// env.go - Environment variable configuration and validation
package conf

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. CATALOG_INGEST_SOURCEDIR.
const EnvPrefix = "CATALOG"

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "CATALOG_DEBUG", validateEnvBool},
		{"main.timezone", "CATALOG_MAIN_TIMEZONE", validateEnvTimezone},

		{"ingest.sourcedir", "CATALOG_INGEST_SOURCEDIR", validateEnvPath},
		{"ingest.processeddir", "CATALOG_INGEST_PROCESSEDDIR", nil},
		{"ingest.mappingfile", "CATALOG_INGEST_MAPPINGFILE", validateEnvPath},

		{"lookup.enabled", "CATALOG_LOOKUP_ENABLED", validateEnvBool},
		{"lookup.timeout", "CATALOG_LOOKUP_TIMEOUT", validateEnvDuration},

		{"database.type", "CATALOG_DATABASE_TYPE", validateEnvDatabaseType},
		{"database.sqlite.path", "CATALOG_DATABASE_SQLITE_PATH", validateEnvPath},
		{"database.mysql.host", "CATALOG_DATABASE_MYSQL_HOST", nil},
		{"database.mysql.port", "CATALOG_DATABASE_MYSQL_PORT", validateEnvPort},
		{"database.mysql.username", "CATALOG_DATABASE_MYSQL_USERNAME", nil},
		{"database.mysql.password", "CATALOG_DATABASE_MYSQL_PASSWORD", nil},
		{"database.mysql.database", "CATALOG_DATABASE_MYSQL_DATABASE", nil},

		{"webserver.listen", "CATALOG_WEBSERVER_LISTEN", validateEnvListen},
		{"webserver.publicurl", "CATALOG_WEBSERVER_PUBLICURL", nil},

		{"telemetry.sentry.enabled", "CATALOG_TELEMETRY_SENTRY_ENABLED", validateEnvBool},
		{"telemetry.sentry.dsn", "CATALOG_TELEMETRY_SENTRY_DSN", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f", value)
	}
	return nil
}

func validateEnvTimezone(value string) error {
	if value == "Local" {
		return nil
	}
	if _, err := time.LoadLocation(value); err != nil {
		return fmt.Errorf("unknown time zone: %w", err)
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %s", d)
	}
	return nil
}

func validateEnvDatabaseType(value string) error {
	switch strings.ToLower(value) {
	case DatabaseSQLite, DatabaseMySQL:
		return nil
	default:
		return fmt.Errorf("must be sqlite or mysql")
	}
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("must be a number between 1 and 65535")
	}
	return nil
}

func validateEnvListen(value string) error {
	if _, _, err := net.SplitHostPort(value); err != nil {
		return fmt.Errorf("must be host:port or :port: %w", err)
	}
	return nil
}

// validateEnvPath rejects traversal components. Relative paths are allowed.
func validateEnvPath(value string) error {
	if filepathHasTraversal(value) {
		return fmt.Errorf("path traversal detected: %s", value)
	}
	return nil
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables() error {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	return bindEnvVars()
}
