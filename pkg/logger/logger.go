// Package logger builds the zap logger for a pipeline run. Every run logs to
// stdout and to its own timestamped file under the configured log directory.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/farhanali/weather-etl/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	*zap.Logger

	// RunLogPath is the per-run log file this logger tees to.
	RunLogPath string
}

func New(cfg config.LoggingConfig) (*Logger, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	runLogPath := filepath.Join(cfg.Dir, fmt.Sprintf("run_%s.log", time.Now().Format("20060102_150405")))

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.Encoding = cfg.Format
	zapCfg.OutputPaths = []string{"stdout", runLogPath}
	zapCfg.ErrorOutputPaths = []string{"stderr"}
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{Logger: l, RunLogPath: runLogPath}, nil
}

func NewDevelopment() *Logger {
	l, _ := zap.NewDevelopment()
	return &Logger{Logger: l}
}

func (l *Logger) Sync() error {
	return l.Logger.Sync()
}
