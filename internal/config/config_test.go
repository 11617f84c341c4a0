package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadLatitude(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Cities[0].Latitude = 123.0

	err := cfg.Validate()
	require.Error(t, err)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Contains(t, fieldErr.Message, "latitude")
}

func TestValidateRejectsEmptyCities(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Cities = nil

	var fieldErr *FieldError
	require.ErrorAs(t, cfg.Validate(), &fieldErr)
	assert.Contains(t, fieldErr.Message, "cities")
}

func TestValidateRejectsBadDate(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Extract.StartDate = "01-01-2024"
	cfg.Extract.EndDate = "2024-01-02"

	var fieldErr *FieldError
	require.ErrorAs(t, cfg.Validate(), &fieldErr)
	assert.Contains(t, fieldErr.Message, "start_date")
}

func TestValidateRejectsInvertedDateRange(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Extract.StartDate = "2024-01-05"
	cfg.Extract.EndDate = "2024-01-02"

	var fieldErr *FieldError
	require.ErrorAs(t, cfg.Validate(), &fieldErr)
}

func TestValidateRejectsUnknownChartMetric(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Charts.Metrics = []string{"windspeed_10m"}

	var fieldErr *FieldError
	require.ErrorAs(t, cfg.Validate(), &fieldErr)
	assert.Contains(t, fieldErr.Message, "windspeed_10m")
}

func TestValidateRejectsUnsafeVariableName(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Extract.Variables = append(cfg.Extract.Variables, `temp"; drop table`)

	var fieldErr *FieldError
	require.ErrorAs(t, cfg.Validate(), &fieldErr)
}

func TestValidateRejectsBadTimezone(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Extract.Timezone = "Mars/Olympus_Mons"

	var fieldErr *FieldError
	require.ErrorAs(t, cfg.Validate(), &fieldErr)
	assert.Equal(t, "extract.timezone", fieldErr.Field)
}

func TestValidateRejectsDuplicateCity(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Cities = append(cfg.Cities, cfg.Cities[0])

	var fieldErr *FieldError
	require.ErrorAs(t, cfg.Validate(), &fieldErr)
	assert.Contains(t, fieldErr.Message, "Karachi")
}

func TestDateRangeDefaultsToYesterdayThroughToday(t *testing.T) {
	e := ExtractConfig{}
	now := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)

	start, end := e.DateRange(now)
	assert.Equal(t, "2024-01-01", start)
	assert.Equal(t, "2024-01-02", end)
}

func TestDateRangeUsesConfiguredWindow(t *testing.T) {
	e := ExtractConfig{StartDate: "2024-01-01", EndDate: "2024-01-02"}

	start, end := e.DateRange(time.Now())
	assert.Equal(t, "2024-01-01", start)
	assert.Equal(t, "2024-01-02", end)
}

func TestLoadReadsFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
cities:
  - name: Berlin
    latitude: 52.52
    longitude: 13.41
extract:
  start_date: "2024-01-01"
  end_date: "2024-01-02"
charts:
  metrics:
    - temperature_2m
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Cities, 1)
	assert.Equal(t, "Berlin", cfg.Cities[0].Name)
	// Untouched sections keep their defaults.
	assert.Equal(t, "https://api.open-meteo.com/v1/forecast", cfg.Extract.BaseURL)
	assert.Equal(t, 10, cfg.Extract.TimeoutSeconds)
}

func TestLoadFailsFastOnInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
cities:
  - name: Nowhere
    latitude: 300.0
    longitude: 13.41
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := Load(path)
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
}

func TestLoadFailsOnMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
