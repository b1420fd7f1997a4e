// Package logger builds the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
	"strings"

	"github.com/go-chi/httplog/v3"
)

// ParseLevel maps LOG_LEVEL values to slog levels. Unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New returns a JSON logger using the ECS field names that the HTTP access
// log uses, tagged with the app name, version and environment.
func New(w io.Writer, level, app, version, env string) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(env != "development")
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", app),
		slog.String("version", version),
		slog.String("env", env),
	)
}
