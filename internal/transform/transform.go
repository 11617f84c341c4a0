// Package transform flattens raw hourly API responses into the processed
// table: one row per (city, timestamp), one column per configured variable.
package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/farhanali/weather-etl/internal/config"
	"github.com/farhanali/weather-etl/internal/dataset"
	"github.com/farhanali/weather-etl/internal/extract"
	"go.uber.org/zap"
)

// Hourly timestamps as returned by the API, e.g. "2024-01-01T13:00".
const timeLayout = "2006-01-02T15:04"

// SchemaMismatchError reports hourly arrays that cannot be aligned by index:
// a variable array whose length differs from the time array, or a payload
// with no time array at all.
type SchemaMismatchError struct {
	City     string
	Variable string
	Want     int
	Got      int
}

func (e *SchemaMismatchError) Error() string {
	if e.Variable == "" {
		return fmt.Sprintf("schema mismatch for %s: hourly time series missing", e.City)
	}
	return fmt.Sprintf("schema mismatch for %s: variable %s has %d values, expected %d", e.City, e.Variable, e.Got, e.Want)
}

// Run reads the latest run's raw artifacts and writes the processed CSV,
// fully replacing any previous one. The returned table reflects only the
// manifest's batches.
//
// Null policy: a row whose configured variables are all null is dropped; a
// row with some nulls is kept and the nulls survive into the CSV and store.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*dataset.Table, error) {
	manifest, err := extract.LoadManifest(cfg.Storage.RawDir)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Extract.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	table := &dataset.Table{Variables: cfg.Extract.Variables}

	for _, entry := range manifest.Files {
		raw, err := os.ReadFile(entry.Path)
		if err != nil {
			return nil, fmt.Errorf("read raw artifact for %s: %w", entry.City, err)
		}

		rows, dropped, err := flattenCity(entry.City, raw, cfg.Extract.Variables, loc)
		if err != nil {
			return nil, err
		}

		logger.Info("Flattened raw artifact",
			zap.String("city", entry.City),
			zap.Int("rows", len(rows)),
			zap.Int("dropped_empty", dropped))

		table.Rows = append(table.Rows, rows...)
	}

	if err := dataset.WriteCSV(cfg.Storage.ProcessedFile, table); err != nil {
		return nil, err
	}

	logger.Info("Wrote processed table",
		zap.String("path", cfg.Storage.ProcessedFile),
		zap.Int("rows", len(table.Rows)))

	return table, nil
}

// flattenCity aligns the parallel hourly arrays by index. The column set
// comes from the configuration, never from the payload: variables the API
// omitted become all-null columns, variables it volunteered beyond the
// configuration are ignored.
func flattenCity(city string, raw []byte, variables []string, loc *time.Location) ([]dataset.Row, int, error) {
	var payload struct {
		Hourly map[string]json.RawMessage `json:"hourly"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, 0, fmt.Errorf("decode raw artifact for %s: %w", city, err)
	}

	timesRaw, ok := payload.Hourly["time"]
	if !ok {
		return nil, 0, &SchemaMismatchError{City: city}
	}
	var times []string
	if err := json.Unmarshal(timesRaw, &times); err != nil {
		return nil, 0, fmt.Errorf("decode hourly time for %s: %w", city, err)
	}
	if len(times) == 0 {
		return nil, 0, &SchemaMismatchError{City: city}
	}

	columns := make([][]*float64, len(variables))
	for i, name := range variables {
		colRaw, ok := payload.Hourly[name]
		if !ok {
			continue
		}
		var col []*float64
		if err := json.Unmarshal(colRaw, &col); err != nil {
			return nil, 0, fmt.Errorf("decode hourly %s for %s: %w", name, city, err)
		}
		if len(col) != len(times) {
			return nil, 0, &SchemaMismatchError{City: city, Variable: name, Want: len(times), Got: len(col)}
		}
		columns[i] = col
	}

	rows := make([]dataset.Row, 0, len(times))
	for idx, ts := range times {
		if _, err := time.ParseInLocation(timeLayout, ts, loc); err != nil {
			return nil, 0, fmt.Errorf("bad hourly timestamp %q for %s: %w", ts, city, err)
		}
		row := dataset.Row{
			City:   city,
			Time:   ts,
			Values: make([]*float64, len(variables)),
		}
		for i, col := range columns {
			if col != nil {
				row.Values[i] = col[idx]
			}
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Time < rows[j].Time
	})

	deduped := rows[:0]
	for _, row := range rows {
		if len(deduped) > 0 && deduped[len(deduped)-1].Time == row.Time {
			continue
		}
		deduped = append(deduped, row)
	}

	kept := make([]dataset.Row, 0, len(deduped))
	dropped := 0
	for _, row := range deduped {
		if allNull(row.Values) {
			dropped++
			continue
		}
		kept = append(kept, row)
	}

	return kept, dropped, nil
}

func allNull(values []*float64) bool {
	for _, v := range values {
		if v != nil {
			return false
		}
	}
	return true
}
