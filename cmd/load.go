package cmd

import (
	"github.com/farhanali/weather-etl/internal/dataset"
	"github.com/farhanali/weather-etl/internal/load"
	"github.com/farhanali/weather-etl/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Upsert the processed table into the SQLite store",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer log.Sync()

		table, err := dataset.ReadCSV(cfg.Storage.ProcessedFile)
		if err != nil {
			log.Error("Load failed", zap.Error(err))
			return err
		}

		count, err := load.Run(cmd.Context(), cfg.Storage.DatabaseFile, table, log.Logger)
		if err != nil {
			log.Error("Load failed",
				zap.String("kind", pipeline.ErrorKind(err)),
				zap.Error(err))
			return err
		}

		log.Info("Load complete",
			zap.String("database", cfg.Storage.DatabaseFile),
			zap.Int("rows", count))
		return nil
	},
}
