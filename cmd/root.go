package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/farhanali/weather-etl/internal/config"
	"github.com/farhanali/weather-etl/pkg/logger"
	"github.com/farhanali/weather-etl/pkg/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	cfg        *config.Config
	log        *logger.Logger
	tele       *telemetry.Telemetry
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weather-etl",
		Short: "Weather ETL pipeline",
		Long: `A batch pipeline that fetches hourly weather observations for the
configured cities, flattens them into a processed table, loads the table into
a local SQLite database and renders per-city trend charts.

Run with no arguments to execute all four stages in order.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeServices(cmd.Context())
		},
		// The bare command is a full pipeline run.
		RunE: runPipeline,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default: ./config.yaml)")

	cmd.AddCommand(runCmd)
	cmd.AddCommand(extractCmd)
	cmd.AddCommand(transformCmd)
	cmd.AddCommand(loadCmd)
	cmd.AddCommand(visualizeCmd)

	return cmd
}

func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		if log != nil {
			log.Info("Received shutdown signal", zap.String("signal", sig.String()))
		}
		cancel()
	}()

	return rootCmd().ExecuteContext(ctx)
}

func initializeServices(ctx context.Context) error {
	var err error

	cfg, err = config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return err
	}

	log, err = logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return err
	}

	tele, err = telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		log.Warn("Failed to initialize telemetry", zap.Error(err))
	}

	log.Info("Configuration loaded",
		zap.String("config_path", configPath),
		zap.String("run_log", log.RunLogPath),
		zap.Int("cities", len(cfg.Cities)))

	return nil
}
