package ingest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/asteroid-catalog/internal/conf"
	"github.com/tphakala/asteroid-catalog/internal/logger"
	pipeline "github.com/tphakala/asteroid-catalog/internal/ingest"
	"github.com/tphakala/asteroid-catalog/internal/testutil"
)

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	dir := t.TempDir()

	settings := &conf.Settings{}
	settings.Main.Timezone = "UTC"
	settings.Ingest.SourceDir = filepath.Join(dir, "incoming")
	settings.Ingest.ProcessedDir = "processed"
	settings.Ingest.MappingFile = filepath.Join(dir, "mappings.csv")
	settings.Database.Type = conf.DatabaseSQLite
	settings.Database.SQLite.Path = filepath.Join(dir, "catalog.db")
	settings.Lookup.Timeout = time.Second
	return settings
}

func TestRunSweepsSourceDirectory(t *testing.T) {
	settings := testSettings(t)
	fs := afero.NewOsFs()
	require.NoError(t, fs.MkdirAll(settings.Ingest.SourceDir, 0o755))

	testutil.NewFITS().Observation("2023-01-01T00:00:00", "Alta U9000").
		WriteFile(t, fs, filepath.Join(settings.Ingest.SourceDir, "ZTF001_20230101.fits"))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(settings.Ingest.SourceDir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, settings.Ingest.MappingFile,
		[]byte("Provisional Name,Official Name\nZTF001,2023 AA1\n"), 0o644))

	summary, err := Run(t.Context(), settings, fs)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Ingested)
	assert.Equal(t, 1, summary.SkippedNotFITS)
	assert.Equal(t, 1, summary.ObservationsCreated)
	assert.Equal(t, 1, summary.Mappings)

	moved := filepath.Join(settings.ProcessedDir(), "ZTF001_20230101.fits")
	exists, err := afero.Exists(fs, moved)
	require.NoError(t, err)
	assert.True(t, exists)

	var out bytes.Buffer
	PrintSummary(&out, summary)
	assert.Contains(t, out.String(), "ZTF001_20230101.fits")
	assert.Contains(t, out.String(), string(pipeline.StateIngested))
	assert.Contains(t, out.String(), "2 files in")
	assert.Contains(t, out.String(), "1 ingested (1 new, 0 existing)")
	assert.Contains(t, out.String(), "1 designation mappings loaded")
}

func TestRunRejectsBadTimezone(t *testing.T) {
	settings := testSettings(t)
	settings.Main.Timezone = "Mars/Olympus_Mons"

	_, err := Run(t.Context(), settings, afero.NewMemMapFs())
	require.Error(t, err)
}

func TestNewClassifier(t *testing.T) {
	settings := testSettings(t)
	settings.Lookup.BaseURL = "https://ssd-api.jpl.nasa.gov/sbdb.api"

	client, closeFn, err := NewClassifier(settings, nil)
	require.NoError(t, err)
	require.NotNil(t, client)
	closeFn()
}

func TestLogLookup(t *testing.T) {
	var buf bytes.Buffer
	hook := logLookup(logger.NewSlogLogger(&buf, logger.LogLevelDebug, time.UTC))

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, "https://ssd-api.jpl.nasa.gov/sbdb.api", http.NoBody)
	require.NoError(t, err)
	hook(req, &http.Response{StatusCode: http.StatusNotFound}, nil, 20*time.Millisecond)
	hook(req, nil, io.ErrUnexpectedEOF, time.Millisecond)

	dec := json.NewDecoder(&buf)
	var ok, failed map[string]any
	require.NoError(t, dec.Decode(&ok))
	require.NoError(t, dec.Decode(&failed))

	assert.Equal(t, "lookup response", ok["msg"])
	assert.Equal(t, "ssd-api.jpl.nasa.gov", ok["host"])
	assert.InDelta(t, float64(http.StatusNotFound), ok["status"], 0)
	assert.Equal(t, "lookup request failed", failed["msg"])
	assert.NotContains(t, failed, "status")
}
