// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Default values shared with the CLI and tests.
const (
	DefaultLookupURL     = "https://ssd-api.jpl.nasa.gov/sbdb.api"
	DefaultMappingsURL   = "https://www.birtwhistle.org.uk/NEOCPObjects2022.htm"
	DefaultLookupTimeout = 10 * time.Second
	DefaultCacheTTL      = 24 * time.Hour
	DefaultRateLimit     = 2.0
)

// setDefaultConfig sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "asteroid-catalog")
	viper.SetDefault("main.timezone", "Local")

	viper.SetDefault("ingest.sourcedir", "data/fits")
	viper.SetDefault("ingest.processeddir", "processed")
	viper.SetDefault("ingest.mappingfile", "data/asteroid_mappings.csv")

	viper.SetDefault("lookup.enabled", true)
	viper.SetDefault("lookup.baseurl", DefaultLookupURL)
	viper.SetDefault("lookup.timeout", DefaultLookupTimeout)
	viper.SetDefault("lookup.cachettl", DefaultCacheTTL)
	viper.SetDefault("lookup.ratelimit", DefaultRateLimit)
	viper.SetDefault("lookup.useragent", "asteroid-catalog/1.0")

	viper.SetDefault("mappings.url", DefaultMappingsURL)

	viper.SetDefault("database.type", "sqlite")
	viper.SetDefault("database.sqlite.path", "catalog.db")
	viper.SetDefault("database.mysql.host", "localhost")
	viper.SetDefault("database.mysql.port", "3306")
	viper.SetDefault("database.mysql.username", "catalog")
	viper.SetDefault("database.mysql.password", "")
	viper.SetDefault("database.mysql.database", "catalog")

	viper.SetDefault("webserver.listen", ":8080")
	viper.SetDefault("webserver.publicurl", "http://localhost:8080")
	viper.SetDefault("webserver.bodylimit", "1M")

	viper.SetDefault("telemetry.sentry.enabled", false)
	viper.SetDefault("telemetry.sentry.dsn", "")
	viper.SetDefault("telemetry.metrics.enabled", true)

	viper.SetDefault("logging.default_level", "info")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.file_output.enabled", false)
	viper.SetDefault("logging.file_output.path", "logs/catalog.log")
	viper.SetDefault("logging.file_output.level", "info")
}
