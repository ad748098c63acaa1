package sbdb

import (
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/httpclient"
	"github.com/tphakala/asteroid-catalog/internal/observability/metrics"
)

const testBaseURL = "https://sbdb.example.test/sbdb.api"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

func newTestClient(t *testing.T, cfg Config) (*Client, *httpmock.MockTransport, *metrics.TestRecorder) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	httpClient := httpclient.New(&httpclient.Config{Transport: transport})
	t.Cleanup(httpClient.Close)

	if cfg.BaseURL == "" {
		cfg.BaseURL = testBaseURL
	}
	recorder := metrics.NewTestRecorder()
	client, err := NewClient(cfg, httpClient, recorder, nil)
	require.NoError(t, err)
	return client, transport, recorder
}

func TestLookupSuccessAndCache(t *testing.T) {
	client, transport, recorder := newTestClient(t, Config{})
	transport.RegisterResponderWithQuery(http.MethodGet, testBaseURL, map[string]string{"sstr": "2022 AB1"},
		httpmock.NewStringResponder(http.StatusOK,
			`{"object":{"fullname":"(2022 AB1)","neo":true,"orbit_class":{"name":"Apollo","code":"APO"}}}`))

	for range 2 {
		cls, err := client.Lookup(t.Context(), "2022 AB1")
		require.NoError(t, err)
		assert.Equal(t, Classification{Class: "Apollo", NEO: true}, cls)
	}

	assert.Equal(t, 1, transport.GetTotalCallCount(), "second lookup is served from cache")
	assert.Equal(t, 1, recorder.OperationCount(metrics.OpLookup, metrics.StatusHit))
	assert.Equal(t, 1, recorder.OperationCount(metrics.OpLookup, metrics.StatusMiss))
	assert.Equal(t, 1, recorder.OperationCount(metrics.OpLookup, metrics.StatusSuccess))
	assert.Equal(t, 1, recorder.DurationCount(metrics.OpLookup))
}

func TestLookupMissingNEOFlag(t *testing.T) {
	client, transport, _ := newTestClient(t, Config{})
	transport.RegisterResponder(http.MethodGet, testBaseURL,
		httpmock.NewStringResponder(http.StatusOK, `{"object":{"orbit_class":{"name":"Main-belt Asteroid"}}}`))

	cls, err := client.Lookup(t.Context(), "433")
	require.NoError(t, err)
	assert.Equal(t, "Main-belt Asteroid", cls.Class)
	assert.False(t, cls.NEO)
}

func TestLookupFailures(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
	}{
		{"server error", httpmock.NewStringResponder(http.StatusInternalServerError, "oops")},
		{"not found status", httpmock.NewStringResponder(http.StatusNotFound, `{"message":"not found"}`)},
		{"malformed body", httpmock.NewStringResponder(http.StatusOK, `{"object":`)},
		{"not an object", httpmock.NewStringResponder(http.StatusOK, `[1,2,3]`)},
		{"object not found", httpmock.NewStringResponder(http.StatusOK, `{"message":"specified object was not found"}`)},
		{"ambiguous", httpmock.NewStringResponder(http.StatusOK, `{"code":"300","list":[{"pdes":"1"},{"pdes":"2"}]}`)},
		{"no orbit class", httpmock.NewStringResponder(http.StatusOK, `{"object":{"neo":false}}`)},
		{"transport error", httpmock.NewErrorResponder(assert.AnError)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, transport, recorder := newTestClient(t, Config{})
			transport.RegisterResponder(http.MethodGet, testBaseURL, tt.responder)

			cls, err := client.Lookup(t.Context(), "2022 AB1")
			require.Error(t, err)
			assert.Equal(t, Undefined, cls)
			assert.ErrorIs(t, err, ErrLookup)
			assert.True(t, errors.IsCategory(err, errors.CategoryLookup))
			assert.Equal(t, 1, recorder.OperationCount(metrics.OpLookup, metrics.StatusError))
			assert.Equal(t, 1, recorder.ErrorCount(metrics.OpLookup, string(errors.CategoryLookup)))
		})
	}
}

func TestLookupFailureIsNotCached(t *testing.T) {
	client, transport, _ := newTestClient(t, Config{})
	transport.RegisterResponder(http.MethodGet, testBaseURL, httpmock.NewStringResponder(http.StatusBadGateway, ""))

	_, err := client.Lookup(t.Context(), "2022 AB1")
	require.Error(t, err)
	_, err = client.Lookup(t.Context(), "2022 AB1")
	require.Error(t, err)
	assert.Equal(t, 2, transport.GetTotalCallCount())
}

func TestLookupTimeout(t *testing.T) {
	client, transport, recorder := newTestClient(t, Config{Timeout: 50 * time.Millisecond})
	transport.RegisterResponder(http.MethodGet, testBaseURL, func(r *http.Request) (*http.Response, error) {
		<-r.Context().Done()
		return nil, r.Context().Err()
	})

	start := time.Now()
	cls, err := client.Lookup(t.Context(), "2022 AB1")
	require.Error(t, err)
	assert.Equal(t, Undefined, cls)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1, recorder.ErrorCount(metrics.OpLookup, string(errors.CategoryTimeout)))
}

func TestLookupRateLimited(t *testing.T) {
	client, transport, _ := newTestClient(t, Config{Timeout: 50 * time.Millisecond, RateLimit: 0.01})
	transport.RegisterResponder(http.MethodGet, testBaseURL,
		httpmock.NewStringResponder(http.StatusOK, `{"object":{"neo":false,"orbit_class":{"name":"Amor"}}}`))

	_, err := client.Lookup(t.Context(), "first")
	require.NoError(t, err)

	_, err = client.Lookup(t.Context(), "second")
	require.Error(t, err, "the second token is not available within the timeout")
	assert.ErrorIs(t, err, ErrLookup)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestLookupEmptyDesignation(t *testing.T) {
	client, transport, _ := newTestClient(t, Config{})
	_, err := client.Lookup(t.Context(), "")
	require.Error(t, err)
	assert.Zero(t, transport.GetTotalCallCount())
}

func TestNewClientRequiresHTTPClient(t *testing.T) {
	_, err := NewClient(DefaultConfig(), nil, nil, nil)
	require.Error(t, err)
}
