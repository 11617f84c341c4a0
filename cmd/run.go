package cmd

import (
	"github.com/farhanali/weather-etl/internal/pipeline"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: extract, transform, load, visualize",
	RunE:  runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	defer tele.Shutdown(cmd.Context())
	defer log.Sync()

	runner := pipeline.NewRunner(cfg, log.Logger, tele)
	return runner.Run(cmd.Context())
}
