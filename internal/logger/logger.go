package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Init installs a JSON-handler slog.Logger as the process default,
// writing to stdout at the given level ("debug", "info", "warn",
// "error"; anything unrecognized falls back to "info").
func Init(level string) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
