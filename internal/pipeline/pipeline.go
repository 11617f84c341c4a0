// Package pipeline sequences the four ETL stages: extract, transform, load,
// visualize. Stages run strictly in order and the first failure aborts the
// whole run, so no stage ever sees partial upstream data.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/farhanali/weather-etl/internal/config"
	"github.com/farhanali/weather-etl/internal/dataset"
	"github.com/farhanali/weather-etl/internal/extract"
	"github.com/farhanali/weather-etl/internal/load"
	"github.com/farhanali/weather-etl/internal/transform"
	"github.com/farhanali/weather-etl/internal/visualize"
	"github.com/farhanali/weather-etl/pkg/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Runner orchestrates one pipeline run. Stage functions are fields so tests
// can substitute a single stage without touching the sequencing logic.
type Runner struct {
	cfg    *config.Config
	logger *zap.Logger
	tele   *telemetry.Telemetry

	extractStage   func(ctx context.Context, runID string) error
	transformStage func(ctx context.Context) (*dataset.Table, error)
	loadStage      func(ctx context.Context, table *dataset.Table) (int, error)
	visualizeStage func(ctx context.Context) ([]string, error)
}

func NewRunner(cfg *config.Config, logger *zap.Logger, tele *telemetry.Telemetry) *Runner {
	r := &Runner{
		cfg:    cfg,
		logger: logger,
		tele:   tele,
	}
	r.extractStage = func(ctx context.Context, runID string) error {
		_, err := extract.Run(ctx, cfg, runID, logger)
		return err
	}
	r.transformStage = func(ctx context.Context) (*dataset.Table, error) {
		return transform.Run(ctx, cfg, logger)
	}
	r.loadStage = func(ctx context.Context, table *dataset.Table) (int, error) {
		return load.Run(ctx, cfg.Storage.DatabaseFile, table, logger)
	}
	r.visualizeStage = func(ctx context.Context) ([]string, error) {
		return visualize.Run(ctx, cfg, logger)
	}
	return r
}

// NewRunID returns a short identifier that tags a run's log lines and raw
// artifact filenames.
func NewRunID() string {
	return uuid.NewString()[:8]
}

// Run executes one full pipeline run and returns the first stage error.
func (r *Runner) Run(ctx context.Context) error {
	runID := NewRunID()
	log := r.logger.With(zap.String("run_id", runID))
	started := time.Now()

	log.Info("Pipeline run starting",
		zap.Int("cities", len(r.cfg.Cities)),
		zap.Strings("variables", r.cfg.Extract.Variables))

	if err := r.runStage(ctx, log, "extract", func(ctx context.Context) error {
		return r.extractStage(ctx, runID)
	}); err != nil {
		return err
	}

	var table *dataset.Table
	if err := r.runStage(ctx, log, "transform", func(ctx context.Context) error {
		var err error
		table, err = r.transformStage(ctx)
		return err
	}); err != nil {
		return err
	}

	if err := r.runStage(ctx, log, "load", func(ctx context.Context) error {
		count, err := r.loadStage(ctx, table)
		if err == nil {
			log.Info("Rows written to store", zap.Int("rows", count))
		}
		return err
	}); err != nil {
		return err
	}

	if err := r.runStage(ctx, log, "visualize", func(ctx context.Context) error {
		charts, err := r.visualizeStage(ctx)
		if err == nil {
			log.Info("Charts rendered", zap.Int("charts", len(charts)))
		}
		return err
	}); err != nil {
		return err
	}

	log.Info("Pipeline run complete", zap.Duration("duration", time.Since(started)))
	return nil
}

func (r *Runner) runStage(ctx context.Context, log *zap.Logger, name string, fn func(ctx context.Context) error) error {
	ctx, endSpan := r.tele.StartSpan(ctx, "pipeline."+name)
	defer endSpan()

	started := time.Now()
	log.Info("Stage starting", zap.String("stage", name))

	if err := fn(ctx); err != nil {
		r.tele.RecordError(ctx, err)
		log.Error("Stage failed, aborting run",
			zap.String("stage", name),
			zap.String("kind", ErrorKind(err)),
			zap.Duration("duration", time.Since(started)),
			zap.Error(err))
		return err
	}

	log.Info("Stage complete",
		zap.String("stage", name),
		zap.Duration("duration", time.Since(started)))
	return nil
}

// ErrorKind maps a stage error to its taxonomy name for operator-facing logs.
func ErrorKind(err error) string {
	var (
		fieldErr     *config.FieldError
		netErr       *extract.NetworkError
		apiErr       *extract.APIError
		malformedErr *extract.MalformedResponseError
		schemaErr    *transform.SchemaMismatchError
		storageErr   *load.StorageError
		renderErr    *visualize.RenderError
	)
	switch {
	case errors.As(err, &fieldErr):
		return "configuration"
	case errors.As(err, &netErr):
		return "network"
	case errors.As(err, &apiErr):
		return "api"
	case errors.As(err, &malformedErr):
		return "malformed_response"
	case errors.As(err, &schemaErr):
		return "schema_mismatch"
	case errors.As(err, &storageErr):
		return "storage"
	case errors.As(err, &renderErr):
		return "render"
	default:
		return "internal"
	}
}
