package logger

import (
	"io"
	"log/slog"
	"strings"

	"github.com/go-chi/httplog/v3"
)

const (
	appName    = "uniwork"
	appVersion = "v1.0.0"
)

// New builds the JSON logger shared by the request logger and the services.
// Attribute keys follow the ECS schema so app and access logs line up.
func New(w io.Writer, env string, level string) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(env != "production")

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", appName),
		slog.String("version", appVersion),
		slog.String("env", env),
	)
}

// ParseLevel maps debug, info, warn and error. Anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
