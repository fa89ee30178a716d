package logging

import (
	"log/slog"
	"os"
	"strings"
)

// levelNames maps config strings onto slog levels. Unknown values fall
// back to info so a typo in LOG_LEVEL never silences the service.
var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// NewJSONLogger builds the process-wide structured logger: JSON lines on
// stdout tagged with the service name. The logger is also installed as
// the slog default so package-level calls land in the same stream.
func NewJSONLogger(service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	logger := slog.New(handler).With(slog.String("service", service))
	slog.SetDefault(logger)
	return logger
}

// ParseLevel resolves a config string to a log level, defaulting to info.
func ParseLevel(level string) slog.Level {
	if lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(level))]; ok {
		return lvl
	}
	return slog.LevelInfo
}
