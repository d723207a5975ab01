package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"nuclight.org/relay-tg-bot/app/relay"
)

func TestParseOptionsDefaults(t *testing.T) {
	opts, err := parseOptions([]string{
		"--telegram-api-token", "123:abc",
		"--owner-id", "1",
		"--group-chat-id", "-100",
	})
	require.NoError(t, err)

	require.Equal(t, transportPolling, opts.Transport)
	require.Equal(t, ":8080", opts.addr())
	require.Equal(t, relay.RelayToOwner, opts.relayMode())
	require.Equal(t, storeFile, opts.BlockStore)
	require.Equal(t, slog.LevelInfo, opts.level())
	require.False(t, opts.DisableReplyButtons)
}

func TestParseOptionsFromEnv(t *testing.T) {
	t.Setenv("TELEGRAM_API_TOKEN", "123:abc")
	t.Setenv("OWNER_ID", "1")
	t.Setenv("GROUP_CHAT_ID", "-100")
	t.Setenv("TRANSPORT", "webhook")
	t.Setenv("WEBHOOK_URL", "https://relay.example.com")
	t.Setenv("PORT", "9000")
	t.Setenv("RELAY_TO", "group")

	opts, err := parseOptions(nil)
	require.NoError(t, err)

	require.Equal(t, transportWebhook, opts.Transport)
	require.Equal(t, ":9000", opts.addr())
	require.Equal(t, relay.RelayToGroup, opts.relayMode())
}

func TestParseOptionsErrors(t *testing.T) {
	base := []string{"--telegram-api-token", "123:abc"}

	cases := map[string][]string{
		"missing owner":       {"--group-chat-id", "-100"},
		"malformed owner":     {"--owner-id", "abc", "--group-chat-id", "-100"},
		"owner equals group":  {"--owner-id", "5", "--group-chat-id", "5"},
		"webhook without url": {"--owner-id", "1", "--group-chat-id", "-100", "--transport", "webhook"},
		"unknown transport":   {"--owner-id", "1", "--group-chat-id", "-100", "--transport", "carrier-pigeon"},
		"bad log level":       {"--owner-id", "1", "--group-chat-id", "-100", "--log-level", "loud"},
		"bad port":            {"--owner-id", "1", "--group-chat-id", "-100", "--port", "0"},
	}

	for name, args := range cases {
		_, err := parseOptions(append(append([]string{}, base...), args...))
		require.Error(t, err, name)
	}
}

func TestLoadOptionsLogsInvalidConfiguration(t *testing.T) {
	var buf bytes.Buffer

	_, ok := loadOptions([]string{
		"--telegram-api-token", "123:abc",
		"--owner-id", "1",
		"--group-chat-id", "1",
	}, &buf)
	require.False(t, ok)
	require.Contains(t, buf.String(), "invalid configuration")
	require.Contains(t, buf.String(), "owner id and group chat id must differ")
}

func TestLoadOptionsLeavesParseErrorsToFlags(t *testing.T) {
	var buf bytes.Buffer

	_, ok := loadOptions([]string{"--owner-id", "x"}, &buf)
	require.False(t, ok)
	require.Empty(t, buf.String())
}
