package cmd

import (
	"github.com/farhanali/weather-etl/internal/pipeline"
	"github.com/farhanali/weather-etl/internal/visualize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var visualizeCmd = &cobra.Command{
	Use:   "visualize",
	Short: "Render per-city trend charts from the loaded data",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer log.Sync()

		charts, err := visualize.Run(cmd.Context(), cfg, log.Logger)
		if err != nil {
			log.Error("Visualize failed",
				zap.String("kind", pipeline.ErrorKind(err)),
				zap.Error(err))
			return err
		}

		log.Info("Visualize complete",
			zap.String("dir", cfg.Charts.Dir),
			zap.Int("charts", len(charts)))
		return nil
	},
}
