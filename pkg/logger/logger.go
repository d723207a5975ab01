package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
)

type Logger = *slog.Logger

// NewLogger creates a colored stderr logger. Records at error level are also
// reported to sentry when a sentry client is initialized.
func NewLogger(level slog.Level) Logger {
	return New(os.Stderr, level)
}

// New is NewLogger writing to w.
func New(w io.Writer, level slog.Level) Logger {
	var handler slog.Handler = tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})

	if hub := sentry.CurrentHub(); hub.Client() != nil {
		handler = slogmulti.Fanout(handler, sentryHandler(hub))
	}

	return slog.New(handler)
}

// sentryHandler captures error records as sentry events and sends nothing to
// sentry logs.
func sentryHandler(hub *sentry.Hub) slog.Handler {
	return sentryslog.Option{
		Hub:        hub,
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{},
	}.NewSentryHandler(context.Background())
}

// ParseLevel maps a level name to slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
