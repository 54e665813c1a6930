package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/vendor-payment-scheduler/internal/config"
)

// ParseLevel maps a configured level name to a slog level, defaulting to info
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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

// NewLogger creates the JSON stdout logger used by every binary
func NewLogger(cfg *config.Config) *slog.Logger {
	logger := New(os.Stdout, cfg)
	logger.Info("logger initialized", "level", ParseLevel(cfg.Logging.Level))
	return logger
}

// New builds a JSON logger writing to w, tagged with the service name and environment
func New(w io.Writer, cfg *config.Config) *slog.Logger {
	level := ParseLevel(cfg.Logging.Level)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	logger := slog.New(slog.NewJSONHandler(w, opts))
	if cfg.Application.Name != "" {
		logger = logger.With("service", cfg.Application.Name)
	}
	if cfg.Application.Env != "" {
		logger = logger.With("env", cfg.Application.Env)
	}
	return logger
}
