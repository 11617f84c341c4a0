package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/farhanali/weather-etl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleBody = `{
  "latitude": 24.8607,
  "longitude": 67.0011,
  "hourly": {
    "time": ["2024-01-01T00:00", "2024-01-01T01:00"],
    "temperature_2m": [13.2, 12.8],
    "relativehumidity_2m": [62, null]
  }
}`

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.NewDefaultConfig()
	cfg.Cities = []config.City{
		{Name: "Karachi", Latitude: 24.8607, Longitude: 67.0011},
		{Name: "Lahore", Latitude: 31.5204, Longitude: 74.3587},
	}
	cfg.Extract.BaseURL = baseURL
	cfg.Extract.Variables = []string{"temperature_2m", "relativehumidity_2m"}
	cfg.Extract.StartDate = "2024-01-01"
	cfg.Extract.EndDate = "2024-01-02"
	cfg.Storage.RawDir = filepath.Join(dir, "raw")
	return cfg
}

func TestRunPersistsRawBodiesVerbatim(t *testing.T) {
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.RawQuery)
		w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	manifest, err := Run(context.Background(), cfg, "run1", zap.NewNop())
	require.NoError(t, err)

	require.Len(t, manifest.Files, 2)
	assert.Equal(t, "Karachi", manifest.Files[0].City)
	assert.Equal(t, "Lahore", manifest.Files[1].City)
	assert.Equal(t, "2024-01-01", manifest.StartDate)
	assert.Equal(t, "2024-01-02", manifest.EndDate)

	for _, entry := range manifest.Files {
		data, err := os.ReadFile(entry.Path)
		require.NoError(t, err)
		assert.Equal(t, sampleBody, string(data), "raw artifact must match the response byte for byte")
	}

	require.Len(t, requests, 2)
	assert.Contains(t, requests[0], "hourly=temperature_2m%2Crelativehumidity_2m")
	assert.Contains(t, requests[0], "start_date=2024-01-01")
	assert.Contains(t, requests[0], "timezone=Asia%2FKarachi")
}

func TestRunNamesArtifactsByRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)

	first, err := Run(context.Background(), cfg, "aaaa1111", zap.NewNop())
	require.NoError(t, err)
	second, err := Run(context.Background(), cfg, "bbbb2222", zap.NewNop())
	require.NoError(t, err)

	// A new run never rewrites a prior run's artifacts.
	assert.NotEqual(t, first.Files[0].Path, second.Files[0].Path)
	for _, entry := range first.Files {
		_, err := os.Stat(entry.Path)
		assert.NoError(t, err)
	}

	// The manifest points at the latest run only.
	m, err := LoadManifest(cfg.Storage.RawDir)
	require.NoError(t, err)
	assert.Equal(t, "bbbb2222", m.RunID)
	assert.Equal(t, second.Files, m.Files)
}

func TestRunReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	_, err := Run(context.Background(), cfg, "run1", zap.NewNop())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "Karachi", apiErr.City)
	assert.Contains(t, apiErr.Body, "rate limited")
}

func TestRunReportsMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	_, err := Run(context.Background(), cfg, "run1", zap.NewNop())

	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
}

func TestRunReportsMissingHourlySection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"latitude": 24.86}`))
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	_, err := Run(context.Background(), cfg, "run1", zap.NewNop())

	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Reason, "hourly")
}

func TestRunReportsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	cfg := testConfig(t, url)
	_, err := Run(context.Background(), cfg, "run1", zap.NewNop())

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "Karachi", netErr.City)
}

func TestRunStopsAtFirstFailingCity(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	_, err := Run(context.Background(), cfg, "run1", zap.NewNop())

	require.Error(t, err)
	assert.Equal(t, 1, calls, "second city must not be fetched after the first fails")

	// No manifest: the failed run produced no usable batch set.
	_, err = LoadManifest(cfg.Storage.RawDir)
	assert.Error(t, err)
}
