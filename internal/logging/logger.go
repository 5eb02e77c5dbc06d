package logging

import (
	"log/slog"
	"os"

	"github.com/streamhaus/chatbridge/internal/domain"
	"github.com/streamhaus/chatbridge/internal/platform/correlation"
)

// InitLogger initializes the global logger with the specified level and format.
// level: "debug", "info", "warn", "error" (defaults to "info")
// format: "json" or "text" (defaults to "text")
func InitLogger(level, format string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	handler = correlation.NewHandler(handler)

	slog.SetDefault(slog.New(handler))
}

// WithTenant returns a logger with a tenant_id field.
func WithTenant(tenant domain.TenantID) *slog.Logger {
	return slog.Default().With("tenant_id", tenant.String())
}

// WithChannel returns a logger with platform and channel fields.
func WithChannel(platform, channel string) *slog.Logger {
	return slog.Default().With("platform", platform, "channel", channel)
}
