package mappings

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/asteroid-catalog/internal/designation"
	"github.com/tphakala/asteroid-catalog/internal/httpclient"
	"github.com/tphakala/asteroid-catalog/internal/logger"
)

const pageURL = "https://neocp.example.test/objects.htm"

func TestFetchWritesAndAppends(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, pageURL,
		httpmock.NewStringResponder(http.StatusOK, "<p>2022 AB1 = P21abcd</p><p>2022 AC = C0XYZ12</p>"))
	client := httpclient.New(&httpclient.Config{Transport: transport})
	t.Cleanup(client.Close)

	fs := afero.NewMemMapFs()
	var out bytes.Buffer
	opts := FetchOptions{URL: pageURL, Output: "mappings.csv"}
	require.NoError(t, Fetch(t.Context(), client, fs, opts, &out))
	assert.Contains(t, out.String(), "wrote 2 mappings to mappings.csv")

	opts.Append = true
	require.NoError(t, Fetch(t.Context(), client, fs, opts, &out))

	data, err := afero.ReadFile(fs, "mappings.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(data, []byte("Provisional Name")), "header written once")
	assert.Equal(t, 2, bytes.Count(data, []byte("P21abcd")))

	m, err := designation.LoadMapping(fs, "mappings.csv", logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2022 AB1", m["P21abcd"])
}

func TestFetchHTTPFailureLeavesFileUntouched(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, pageURL, httpmock.NewStringResponder(http.StatusNotFound, "gone"))
	client := httpclient.New(&httpclient.Config{Transport: transport})
	t.Cleanup(client.Close)

	fs := afero.NewMemMapFs()
	require.Error(t, Fetch(t.Context(), client, fs, FetchOptions{URL: pageURL, Output: "m.csv"}, &bytes.Buffer{}))

	exists, err := afero.Exists(fs, "m.csv")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestResolve(t *testing.T) {
	var out bytes.Buffer
	Resolve(&out, designation.Mapping{"P21abcd": "2022 AB1"}, []string{"P21abcd", "C0XYZ"})

	assert.Equal(t, "P21abcd\tconfirmed\t2022 AB1\nC0XYZ\tnot_confirmed\t-\n", out.String())
}
