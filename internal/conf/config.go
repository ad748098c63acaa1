// config.go: settings for the asteroid catalog and the functions that load them.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// MainSettings contains process-wide settings.
type MainSettings struct {
	Name     string // instance name, reported by /healthz
	Timezone string // zone used to interpret DATE-OBS values, "Local" or IANA name
}

// IngestSettings controls the ingestion sweep.
type IngestSettings struct {
	SourceDir    string // directory scanned for FITS files
	ProcessedDir string // ingested files are moved here, relative paths resolve against SourceDir
	MappingFile  string // CSV of provisional to official designations
}

// LookupSettings configures the small-body classification service.
type LookupSettings struct {
	Enabled   bool          // false skips classification entirely
	BaseURL   string        // SBDB endpoint
	Timeout   time.Duration // per-lookup timeout
	CacheTTL  time.Duration // how long a classification is cached
	RateLimit float64       // requests per second
	UserAgent string
}

// MappingsSettings configures the designation mapping scraper.
type MappingsSettings struct {
	URL string // HTML page listing "official = provisional" pairs
}

// SQLiteSettings contains settings for the SQLite database.
type SQLiteSettings struct {
	Path string // path to the database file
}

// MySQLSettings contains settings for the MySQL database.
type MySQLSettings struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// Supported database types.
const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// DatabaseSettings selects and configures the datastore backend.
type DatabaseSettings struct {
	Type   string // DatabaseSQLite or DatabaseMySQL
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// WebServerSettings contains settings for the HTTP server.
type WebServerSettings struct {
	Listen    string // address to listen on, e.g. ":8080"
	PublicURL string // base URL used when building download links
	BodyLimit string // echo body limit, e.g. "1M"
}

// SentrySettings contains error telemetry settings.
type SentrySettings struct {
	Enabled bool
	DSN     string
}

// MetricsSettings toggles the prometheus endpoint.
type MetricsSettings struct {
	Enabled bool
}

// TelemetrySettings groups observability settings.
type TelemetrySettings struct {
	Sentry  SentrySettings
	Metrics MetricsSettings
}

// Settings is the root of the configuration tree.
type Settings struct {
	Debug bool

	Main      MainSettings
	Ingest    IngestSettings
	Lookup    LookupSettings
	Mappings  MappingsSettings
	Database  DatabaseSettings
	WebServer WebServerSettings
	Telemetry TelemetrySettings
	Logging   logger.LoggingConfig
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex

	// configFile overrides the default search paths when set
	configFile string
)

// SetConfigFile makes Load read the given file instead of searching the default paths.
func SetConfigFile(path string) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	configFile = path
}

// Load reads the configuration file and environment variables into a new Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal-config").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper sets defaults, environment bindings and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	setDefaultConfig()

	// Invalid environment values are reported but do not stop startup
	if err := configureEnvironmentVariables(); err != nil {
		logger.Global().Module("conf").Warn("environment variable configuration issues", logger.Error(err))
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errors.New(err).
				Category(errors.CategoryConfiguration).
				Context("operation", "read-config").
				FileContext(configFile).
				Build()
		}
		return nil
	}

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default configuration into dir and reads it back.
func createDefaultConfig(dir string) error {
	configPath := filepath.Join(dir, "config.yaml")

	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return fmt.Errorf("error reading embedded default config: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "create-config-dir").
			Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.FileError(err, configPath)
	}

	logger.Global().Module("conf").Info("created default config file", logger.String("path", configPath))
	viper.SetConfigFile(configPath)
	return viper.ReadInConfig()
}

// GetSettings returns the most recently loaded settings, or nil.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveYAMLConfig writes settings to configPath atomically via a temporary file.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return errors.FileError(err, configPath)
	}
	tempName := tempFile.Name()
	defer func() { _ = os.Remove(tempName) }()

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		return errors.FileError(err, tempName)
	}
	if err := tempFile.Close(); err != nil {
		return errors.FileError(err, tempName)
	}

	if err := os.Rename(tempName, configPath); err != nil {
		return errors.FileError(err, configPath)
	}
	return nil
}

// Location returns the time zone used to interpret observation timestamps.
func (s *Settings) Location() (*time.Location, error) {
	switch s.Main.Timezone {
	case "", "Local":
		return time.Local, nil
	default:
		loc, err := time.LoadLocation(s.Main.Timezone)
		if err != nil {
			return nil, errors.New(err).
				Category(errors.CategoryConfiguration).
				Context("timezone", s.Main.Timezone).
				Build()
		}
		return loc, nil
	}
}

// ProcessedDir returns the processed directory, resolving relative paths against the source directory.
func (s *Settings) ProcessedDir() string {
	return ResolveProcessedDir(s.Ingest.SourceDir, s.Ingest.ProcessedDir)
}

// ResolveProcessedDir joins a relative processed directory onto the source directory.
func ResolveProcessedDir(sourceDir, processedDir string) string {
	if processedDir == "" {
		processedDir = "processed"
	}
	if filepath.IsAbs(processedDir) {
		return filepath.Clean(processedDir)
	}
	return filepath.Join(sourceDir, processedDir)
}
