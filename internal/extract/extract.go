// Package extract fetches hourly observations from the Open-Meteo API and
// persists one raw JSON artifact per (city, run).
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/farhanali/weather-etl/internal/config"
	"go.uber.org/zap"
)

// NetworkError is a transport-level failure: connection refused, DNS,
// timeout.
type NetworkError struct {
	City string
	Err  error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.City, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-200 response from the weather API.
type APIError struct {
	City       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error fetching %s: status %d: %s", e.City, e.StatusCode, e.Body)
}

// MalformedResponseError is a 200 response whose body is not the expected
// hourly JSON shape.
type MalformedResponseError struct {
	City   string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response for %s: %s", e.City, e.Reason)
}

type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewClient(cfg config.ExtractConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: cfg.Timeout(),
		},
		logger: logger,
	}
}

// Fetch issues one request for one city and returns the response body
// verbatim. The body is validated for shape but never re-encoded, so the
// persisted artifact matches the API response byte for byte.
func (c *Client) Fetch(ctx context.Context, city config.City, variables []string, timezone, start, end string) ([]byte, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("latitude", fmt.Sprintf("%.4f", city.Latitude))
	q.Set("longitude", fmt.Sprintf("%.4f", city.Longitude))
	q.Set("hourly", strings.Join(variables, ","))
	q.Set("timezone", timezone)
	q.Set("start_date", start)
	q.Set("end_date", end)
	u.RawQuery = q.Encode()

	c.logger.Debug("Requesting weather data",
		zap.String("city", city.Name),
		zap.String("url", u.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{City: city.Name, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{City: city.Name, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			City:       city.Name,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var payload struct {
		Hourly struct {
			Time []string `json:"time"`
		} `json:"hourly"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &MalformedResponseError{City: city.Name, Reason: fmt.Sprintf("body is not valid JSON: %v", err)}
	}
	if len(payload.Hourly.Time) == 0 {
		return nil, &MalformedResponseError{City: city.Name, Reason: "hourly time series missing or empty"}
	}

	return body, nil
}

// Run extracts all configured cities in order and records the run's artifacts
// in the manifest. Raw files embed the run ID, so a prior run's artifacts are
// never rewritten; the manifest names only the current run's files.
func Run(ctx context.Context, cfg *config.Config, runID string, logger *zap.Logger) (*Manifest, error) {
	start, end := cfg.Extract.DateRange(time.Now())

	if err := os.MkdirAll(cfg.Storage.RawDir, 0o755); err != nil {
		return nil, fmt.Errorf("create raw dir: %w", err)
	}

	client := NewClient(cfg.Extract, logger)
	manifest := &Manifest{
		RunID:     runID,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		StartDate: start,
		EndDate:   end,
	}

	logger.Info("Fetching weather data",
		zap.String("start_date", start),
		zap.String("end_date", end),
		zap.Int("cities", len(cfg.Cities)))

	for _, city := range cfg.Cities {
		logger.Info("Fetching city",
			zap.String("city", city.Name),
			zap.Float64("latitude", city.Latitude),
			zap.Float64("longitude", city.Longitude))

		body, err := client.Fetch(ctx, city, cfg.Extract.Variables, cfg.Extract.Timezone, start, end)
		if err != nil {
			return nil, err
		}

		name := fmt.Sprintf("%s_%s_%s_%s.json", safeName(city.Name), start, end, runID)
		path := filepath.Join(cfg.Storage.RawDir, name)
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return nil, fmt.Errorf("write raw artifact for %s: %w", city.Name, err)
		}

		logger.Info("Saved raw artifact",
			zap.String("city", city.Name),
			zap.String("path", path),
			zap.Int("bytes", len(body)))

		manifest.Files = append(manifest.Files, ManifestEntry{City: city.Name, Path: path})
	}

	if err := manifest.Write(cfg.Storage.RawDir); err != nil {
		return nil, err
	}

	return manifest, nil
}

func safeName(city string) string {
	return strings.ReplaceAll(city, " ", "_")
}
