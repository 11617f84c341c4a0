package cmd

import (
	"github.com/farhanali/weather-etl/internal/pipeline"
	"github.com/farhanali/weather-etl/internal/transform"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Flatten the latest run's raw data into the processed table",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer log.Sync()

		table, err := transform.Run(cmd.Context(), cfg, log.Logger)
		if err != nil {
			log.Error("Transform failed",
				zap.String("kind", pipeline.ErrorKind(err)),
				zap.Error(err))
			return err
		}

		log.Info("Transform complete",
			zap.String("path", cfg.Storage.ProcessedFile),
			zap.Int("rows", len(table.Rows)))
		return nil
	},
}
