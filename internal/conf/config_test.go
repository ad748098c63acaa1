package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetViper isolates tests that go through the global viper instance
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	SetConfigFile("")
	t.Cleanup(func() {
		viper.Reset()
		SetConfigFile("")
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	resetViper(t)

	SetConfigFile(writeConfig(t, `
main:
  timezone: UTC
ingest:
  sourcedir: /srv/fits
  processeddir: done
lookup:
  timeout: 5s
database:
  type: MySQL
  mysql:
    host: db
    username: catalog
    database: catalog
`))

	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/fits", settings.Ingest.SourceDir)
	assert.Equal(t, filepath.Join("/srv/fits", "done"), settings.ProcessedDir())
	assert.Equal(t, 5*time.Second, settings.Lookup.Timeout)
	assert.Equal(t, DefaultCacheTTL, settings.Lookup.CacheTTL, "defaults fill unset keys")
	assert.Equal(t, "mysql", settings.Database.Type, "database type is normalised")
	assert.Equal(t, "3306", settings.Database.MySQL.Port)
	assert.Equal(t, ":8080", settings.WebServer.Listen)
	assert.True(t, settings.Logging.Console.Enabled)

	loc, err := settings.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	assert.Same(t, settings, GetSettings())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	resetViper(t)

	SetConfigFile(writeConfig(t, "ingest:\n  sourcedir: /srv/fits\n"))
	t.Setenv("CATALOG_LOOKUP_TIMEOUT", "3s")
	t.Setenv("CATALOG_LOOKUP_ENABLED", "false")
	t.Setenv("CATALOG_WEBSERVER_LISTEN", "127.0.0.1:9000")

	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, settings.Lookup.Timeout)
	assert.False(t, settings.Lookup.Enabled)
	assert.Equal(t, "127.0.0.1:9000", settings.WebServer.Listen)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	resetViper(t)

	SetConfigFile(writeConfig(t, `
main:
  timezone: Atlantis/Capital
database:
  type: postgres
webserver:
  listen: nonsense
`))

	_, err := Load()
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 3)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	resetViper(t)

	SetConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	require.Error(t, err)
}

func TestCreateDefaultConfig(t *testing.T) {
	resetViper(t)
	setDefaultConfig()

	dir := filepath.Join(t.TempDir(), "nested")
	require.NoError(t, createDefaultConfig(dir))

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "sbdb.api")
	assert.Equal(t, "sqlite", viper.GetString("database.type"))
}

func TestSaveYAMLConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	settings := &Settings{Ingest: IngestSettings{SourceDir: "/data"}}

	require.NoError(t, SaveYAMLConfig(path, settings))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "/data")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file is removed")
}

func TestResolveProcessedDir(t *testing.T) {
	tests := []struct {
		source, processed, want string
	}{
		{"/data/in", "", filepath.Join("/data/in", "processed")},
		{"/data/in", "processed", filepath.Join("/data/in", "processed")},
		{"/data/in", "/archive", "/archive"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveProcessedDir(tt.source, tt.processed))
	}
}

func TestMySQLDSN(t *testing.T) {
	s := &Settings{Database: DatabaseSettings{MySQL: MySQLSettings{
		Host: "db", Port: "3306", Username: "u", Password: "p", Database: "cat",
	}}}
	assert.Equal(t, "u:p@tcp(db:3306)/cat?charset=utf8mb4&parseTime=True&loc=UTC", s.MySQLDSN())
}
