package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/asteroid-catalog/internal/datastore"
	"github.com/tphakala/asteroid-catalog/internal/logger"
	"github.com/tphakala/asteroid-catalog/internal/securefs"
	"github.com/tphakala/asteroid-catalog/internal/testutil"
	"github.com/tphakala/asteroid-catalog/internal/votable"
)

type transferLog struct {
	mu      sync.Mutex
	entries []string
}

func (t *transferLog) RecordTransfer(kind, status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, kind+":"+status)
}

type testEnv struct {
	echo      *echo.Echo
	store     *datastore.SQLiteStore
	transfers *transferLog
	obsID     uint
	missingID uint
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
	ctx := t.Context()

	store := datastore.NewSQLiteStore(datastore.MemoryPath, log)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	official := "2023 AA1"
	discovered := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := store.GetOrCreateAsteroid(ctx, datastore.Asteroid{
		ProvisionalName: "ZTF001", OfficialName: &official, Status: "confirmed",
		TargetClass: "Apollo", IsNEO: true, DiscoveryDate: &discovered,
	})
	require.NoError(t, err)
	_, err = store.GetOrCreateAsteroid(ctx, datastore.Asteroid{ProvisionalName: "C0XYZ", Status: "not_confirmed"})
	require.NoError(t, err)

	present, err := store.GetOrCreateObservation(ctx, datastore.Observation{
		AsteroidName: "ZTF001", DateObs: discovered, Filename: "ZTF001_20230101.fits",
	})
	require.NoError(t, err)
	missing, err := store.GetOrCreateObservation(ctx, datastore.Observation{
		AsteroidName: "ZTF001", DateObs: discovered.Add(time.Hour), Filename: "ZTF001_gone.fits",
	})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ZTF001_20230101.fits"),
		testutil.NewFITS().Observation("2023-01-01T00:00:00", "Alta U9000").Bytes(), 0o600))
	sfs, err := securefs.New(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sfs.Close() })

	e := echo.New()
	transfers := &transferLog{}
	_, err = New(e, store, votable.NewExporter(store, sfs, "http://catalog.test", nil), sfs,
		WithLogger(log),
		WithPublicURL("http://catalog.test/"),
		WithTransferRecorder(transfers))
	require.NoError(t, err)

	return &testEnv{echo: e, store: store, transfers: transfers, obsID: present.Entity.ID, missingID: missing.Entity.ID}
}

func (env *testEnv) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestExportVOTable(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.get(t, "/export_votable/"+itoa(env.obsID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, ContentTypeVOTable, rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `attachment; filename="observation_`+itoa(env.obsID)+`.xml"`,
		rec.Header().Get(echo.HeaderContentDisposition))
	body := rec.Body.String()
	assert.Contains(t, body, `<FIELD name="date_obs" datatype="char" arraysize="*" ucd="time.epoch;obs">`)
	assert.Contains(t, body, "<TD>http://catalog.test/download/fits/ZTF001_20230101.fits</TD>")
	assert.Contains(t, body, "<TD>2023-01-01T00:00:00</TD>")
}

func TestExportVOTableErrors(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name   string
		target string
		code   int
	}{
		{"non-integer id", "/export_votable/abc", http.StatusBadRequest},
		{"zero id", "/export_votable/0", http.StatusBadRequest},
		{"negative id", "/export_votable/-1", http.StatusBadRequest},
		{"unknown observation", "/export_votable/9999", http.StatusNotFound},
		{"file missing", "/export_votable/" + itoa(env.missingID), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.get(t, tt.target)
			assert.Equal(t, tt.code, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.CorrelationID)
		})
	}
}

func TestDownloadFITS(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.get(t, "/download/fits/ZTF001_20230101.fits")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentTypeFITS, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "ZTF001_20230101.fits")
	assert.Equal(t, testutil.NewFITS().Observation("2023-01-01T00:00:00", "Alta U9000").Bytes(), rec.Body.Bytes())

	for _, target := range []string{
		"/download/fits/missing.fits",
		"/download/fits/..%2F..%2Fetc%2Fpasswd",
		"/download/fits/..%5C..%5Cwindows",
		"/download/fits/../../etc/passwd",
	} {
		rec := env.get(t, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.NotContains(t, rec.Body.String(), "root:", target)
	}

	env.transfers.mu.Lock()
	defer env.transfers.mu.Unlock()
	assert.Equal(t, []string{"download:success", "download:error", "download:rejected", "download:rejected"},
		env.transfers.entries)
}

func TestListAsteroids(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.get(t, "/api/v1/asteroids")
	require.Equal(t, http.StatusOK, rec.Code)
	var list AsteroidList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, DefaultListLimit, list.Limit)

	rec = env.get(t, "/api/v1/asteroids?q=2023%20aa&class=Apollo&sort=desc")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "ZTF001", list.Asteroids[0].ProvisionalName)

	rec = env.get(t, "/api/v1/asteroids?q=nothing-matches")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"asteroids":[]`)

	for _, bad := range []string{"?sort=sideways", "?limit=abc", "?limit=0", "?offset=-1"} {
		rec := env.get(t, "/api/v1/asteroids"+bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestGetAsteroid(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.get(t, "/api/v1/asteroids/2023%20AA1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var detail struct {
		ProvisionalName string `json:"provisionalName"`
		TargetClass     string `json:"targetClass"`
		IsNEO           bool   `json:"isNeo"`
		Observations    []struct {
			ID          uint   `json:"id"`
			ExportURL   string `json:"exportUrl"`
			DownloadURL string `json:"downloadUrl"`
		} `json:"observations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "ZTF001", detail.ProvisionalName)
	assert.Equal(t, "Apollo", detail.TargetClass)
	assert.True(t, detail.IsNEO)
	require.Len(t, detail.Observations, 2)
	assert.Equal(t, "http://catalog.test/export_votable/"+itoa(env.obsID), detail.Observations[0].ExportURL)
	assert.Equal(t, "http://catalog.test/download/fits/ZTF001_20230101.fits", detail.Observations[0].DownloadURL)

	rec = env.get(t, "/api/v1/asteroids/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListClasses(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.get(t, "/api/v1/classes")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"classes":["Apollo","undefined"]}`, rec.Body.String())
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(echo.New(), nil, nil, nil)
	require.Error(t, err)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
