package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/andrescamacho/dispatch-go/internal/infrastructure/config"
)

// NewLogger builds the process logger from LoggingConfig and installs it as
// the slog default.
func NewLogger(cfg *config.LoggingConfig) (*slog.Logger, error) {
	var out io.Writer
	switch cfg.Output {
	case "stdout", "":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	case "file":
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("logging.file_path is required when output is file")
		}
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
	default:
		return nil, fmt.Errorf("unsupported logging output: %s", cfg.Output)
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.IncludeCaller,
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
