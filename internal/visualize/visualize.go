// Package visualize renders per-(city, metric) trend charts from the loaded
// store, falling back to the processed CSV when no database exists yet. Both
// sources are schema-equivalent views and chart identically.
package visualize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/farhanali/weather-etl/internal/config"
	"github.com/farhanali/weather-etl/internal/dataset"
	"github.com/farhanali/weather-etl/internal/load"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// RenderError reports a city (or city/metric) with nothing to plot. Data gaps
// abort the run so the operator notices them.
type RenderError struct {
	City   string
	Metric string
}

func (e *RenderError) Error() string {
	if e.Metric == "" {
		return fmt.Sprintf("render error: no rows for city %s", e.City)
	}
	return fmt.Sprintf("render error: no values for metric %s in city %s", e.Metric, e.City)
}

// Run renders one PNG line chart per configured (city, metric) pair. Chart
// paths are derived from city and metric only, so each run overwrites the
// previous run's charts in place. Returns the written paths.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) ([]string, error) {
	table, source, err := loadSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Extract.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	if err := os.MkdirAll(cfg.Charts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create charts dir: %w", err)
	}

	logger.Info("Rendering charts",
		zap.String("source", source),
		zap.Int("rows", len(table.Rows)),
		zap.Int("cities", len(cfg.Cities)),
		zap.Strings("metrics", cfg.Charts.Metrics))

	var written []string
	for _, city := range cfg.Cities {
		rows := table.CityRows(city.Name)
		if len(rows) == 0 {
			return nil, &RenderError{City: city.Name}
		}

		for _, metric := range cfg.Charts.Metrics {
			path := ChartPath(cfg.Charts.Dir, city.Name, metric)
			if err := renderChart(rows, table.VariableIndex(metric), city.Name, metric, loc, path); err != nil {
				return nil, err
			}
			logger.Info("Saved chart",
				zap.String("city", city.Name),
				zap.String("metric", metric),
				zap.String("path", path))
			written = append(written, path)
		}
	}

	return written, nil
}

// ChartPath is the stable output location for one (city, metric) pair.
func ChartPath(dir, city, metric string) string {
	name := fmt.Sprintf("%s_%s.png", metric, strings.ReplaceAll(city, " ", "_"))
	return filepath.Join(dir, name)
}

func loadSource(ctx context.Context, cfg *config.Config) (*dataset.Table, string, error) {
	if _, err := os.Stat(cfg.Storage.DatabaseFile); err == nil {
		table, err := load.ReadTable(ctx, cfg.Storage.DatabaseFile, cfg.Extract.Variables)
		if err != nil {
			return nil, "", err
		}
		return table, cfg.Storage.DatabaseFile, nil
	}
	table, err := dataset.ReadCSV(cfg.Storage.ProcessedFile)
	if err != nil {
		return nil, "", err
	}
	return table, cfg.Storage.ProcessedFile, nil
}

func renderChart(rows []dataset.Row, varIdx int, city, metric string, loc *time.Location, path string) error {
	pts := make(plotter.XYs, 0, len(rows))
	for _, row := range rows {
		if varIdx < 0 || row.Values[varIdx] == nil {
			continue
		}
		ts, err := time.ParseInLocation("2006-01-02T15:04", row.Time, loc)
		if err != nil {
			return fmt.Errorf("bad timestamp %q for %s: %w", row.Time, city, err)
		}
		pts = append(pts, plotter.XY{X: float64(ts.Unix()), Y: *row.Values[varIdx]})
	}
	if len(pts) == 0 {
		return &RenderError{City: city, Metric: metric}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s, %s", metric, city)
	p.X.Label.Text = "time"
	p.Y.Label.Text = metric
	p.X.Tick.Marker = plot.TimeTicks{
		Format: "Jan 2 15:04",
		Time:   plot.UnixTimeIn(loc),
	}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("build line for %s/%s: %w", city, metric, err)
	}
	p.Add(line)

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}
