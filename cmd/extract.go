package cmd

import (
	"github.com/farhanali/weather-etl/internal/extract"
	"github.com/farhanali/weather-etl/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Fetch raw weather data for the configured cities",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer log.Sync()

		runID := pipeline.NewRunID()
		manifest, err := extract.Run(cmd.Context(), cfg, runID, log.Logger)
		if err != nil {
			log.Error("Extract failed",
				zap.String("kind", pipeline.ErrorKind(err)),
				zap.Error(err))
			return err
		}

		log.Info("Extract complete",
			zap.String("run_id", runID),
			zap.Int("artifacts", len(manifest.Files)))
		return nil
	},
}
