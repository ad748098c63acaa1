package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the configuration for the export tool.
type Config struct {
	// Source database
	SQLitePath string

	// Target database - either DSN or individual components
	MySQLDSN      string
	MySQLHost     string
	MySQLPort     int
	MySQLUser     string
	MySQLPass     string
	MySQLDatabase string

	// Migration options
	BatchSize  int
	Clean      bool
	SkipVerify bool
	Verbose    bool

	// Config file path for fallback
	ConfigPath string
}

// Load validates the configuration, falling back to the catalog config.yaml
// for the SQLite path and MySQL settings.
func (c *Config) Load() error {
	if c.SQLitePath == "" {
		if err := c.loadFromConfigFile(); err != nil && c.SQLitePath == "" {
			return fmt.Errorf("--sqlite-path is required (or provide config.yaml): %w", err)
		}
	}

	if _, err := os.Stat(c.SQLitePath); os.IsNotExist(err) {
		return fmt.Errorf("SQLite database not found: %s", c.SQLitePath)
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("batch-size must be at least 1")
	}
	if c.BatchSize > 10000 {
		return fmt.Errorf("batch-size too large (max 10000)")
	}

	return nil
}

// loadFromConfigFile reads database.sqlite and database.mysql from config.yaml.
func (c *Config) loadFromConfigFile() error {
	v := viper.New()

	configPath := c.ConfigPath
	if configPath == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			p := filepath.Join(homeDir, ".config", "asteroid-catalog", "config.yaml")
			if _, statErr := os.Stat(p); statErr == nil {
				configPath = p
			}
		}
		if configPath == "" {
			configPath = "config.yaml"
		}
	}

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if c.SQLitePath == "" {
		c.SQLitePath = v.GetString("database.sqlite.path")
	}

	if c.MySQLDSN == "" && v.IsSet("database.mysql.host") {
		c.MySQLHost = v.GetString("database.mysql.host")
		c.MySQLPort = v.GetInt("database.mysql.port")
		if c.MySQLPort == 0 {
			c.MySQLPort = 3306
		}
		c.MySQLUser = v.GetString("database.mysql.username")
		c.MySQLPass = v.GetString("database.mysql.password")
		c.MySQLDatabase = v.GetString("database.mysql.database")
	}

	return nil
}

// GetMySQLDSN returns MySQLDSN when set, otherwise a DSN built from the
// individual components. Times are read back in UTC like the catalog does.
func (c *Config) GetMySQLDSN() string {
	if c.MySQLDSN != "" {
		return c.MySQLDSN
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.MySQLUser,
		c.MySQLPass,
		c.MySQLHost,
		c.MySQLPort,
		c.MySQLDatabase,
	)
}

// GetSanitizedMySQLDSN returns the MySQL DSN with password masked for logging.
func (c *Config) GetSanitizedMySQLDSN() string {
	dsn := c.GetMySQLDSN()

	// Format: user:password@tcp(host:port)/database
	if idx := strings.Index(dsn, ":"); idx != -1 {
		if atIdx := strings.Index(dsn, "@"); atIdx != -1 && atIdx > idx {
			return dsn[:idx+1] + "****" + dsn[atIdx:]
		}
	}

	return dsn
}
