package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}

	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelWarn)

	log.Info("hidden")
	require.Empty(t, buf.String())

	log.With("user_id", 7).Error("relaying failed", "error", "boom")
	require.Contains(t, buf.String(), "relaying failed")
	require.Contains(t, buf.String(), "user_id")
}

func TestSentryHandlerCapturesErrors(t *testing.T) {
	var events []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			events = append(events, event)
			return nil
		},
	})
	require.NoError(t, err)

	log := slog.New(sentryHandler(sentry.NewHub(client, sentry.NewScope())))

	log.Warn("not reported")
	require.Empty(t, events)

	log.Error("relaying failed", "error", errors.New("boom"))
	require.Len(t, events, 1)
	require.Equal(t, sentry.LevelError, events[0].Level)
}
