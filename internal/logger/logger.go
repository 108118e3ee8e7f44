package logger

import (
	"log/slog"
	"os"

	"docchat-platform/internal/config"
)

// Logger starts as slog's default so packages can log before InitLogger runs
var Logger = slog.Default()

// InitLogger initializes structured logging based on configuration.
// Every line carries the binary's name so API and worker logs can share a sink.
func InitLogger(cfg *config.Config, service string) {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.LogLevel, cfg.GinMode),
		AddSource: cfg.GinMode == "debug", // Only add source in debug mode
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	Logger = slog.New(handler).With("service", service)
	slog.SetDefault(Logger)

	Logger.Info("Structured logging initialized", "level", opts.Level.Level().String())
}

// parseLevel honours LOG_LEVEL and falls back to debug in gin debug mode
func parseLevel(name, ginMode string) slog.Level {
	var level slog.Level
	if name != "" && level.UnmarshalText([]byte(name)) == nil {
		return level
	}
	if ginMode == "debug" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// With returns a child logger carrying the given attributes
func With(args ...any) *slog.Logger {
	return Logger.With(args...)
}

// Helper functions for common log operations
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}
