package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/jessevdk/go-flags"
	"nuclight.org/relay-tg-bot/app/relay"
	"nuclight.org/relay-tg-bot/pkg/logger"
)

const (
	transportPolling = "polling"
	transportWebhook = "webhook"

	storeFile   = "file"
	storeSQLite = "sqlite"
)

type options struct {
	TelegramAPIToken string `long:"telegram-api-token" env:"TELEGRAM_API_TOKEN" required:"true" description:"telegram api token"`
	OwnerID          int64  `long:"owner-id" env:"OWNER_ID" required:"true" description:"telegram id of the bot owner"`
	GroupChatID      int64  `long:"group-chat-id" env:"GROUP_CHAT_ID" required:"true" description:"telegram id of the group receiving broadcasts"`

	Transport   string `long:"transport" env:"TRANSPORT" default:"polling" choice:"polling" choice:"webhook" description:"how updates are received"`
	Port        int    `long:"port" env:"PORT" default:"8080" description:"http port for webhook, health and metrics"`
	WebhookURL  string `long:"webhook-url" env:"WEBHOOK_URL" description:"externally reachable base url, required for webhook transport"`
	PollTimeout int    `long:"poll-timeout" env:"POLL_TIMEOUT" default:"60" description:"long polling timeout in seconds"`

	RelayTo             string `long:"relay-to" env:"RELAY_TO" default:"owner" choice:"owner" choice:"group" description:"where user messages are relayed to"`
	NotifyBlocked       bool   `long:"notify-blocked" env:"NOTIFY_BLOCKED" description:"tell blocked users that they are blocked"`
	DisableReplyButtons bool   `long:"disable-reply-buttons" env:"DISABLE_REPLY_BUTTONS" description:"do not attach reply and block buttons to relayed messages"`

	BlockStore    string `long:"block-store" env:"BLOCK_STORE" default:"file" choice:"file" choice:"sqlite" description:"block list storage"`
	BlockListPath string `long:"blocklist-path" env:"BLOCKLIST_PATH" default:"./blocked_users.txt" description:"path to the block list file"`
	DBPath        string `long:"db-path" env:"DB_PATH" default:"./db/relay.sqlite" description:"path to the sqlite database file"`

	LogLevel  string `long:"log-level" env:"LOG_LEVEL" default:"info" description:"debug, info, warn or error"`
	SentryDSN string `long:"sentry-dsn" env:"SENTRY_DSN" description:"report errors to sentry"`
}

func parseOptions(args []string) (options, error) {
	var opts options

	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return opts, err
	}

	if err := opts.validate(); err != nil {
		return opts, err
	}

	return opts, nil
}

// loadOptions parses args and logs why they were rejected to w. Parse errors
// are already printed by go-flags.
func loadOptions(args []string, w io.Writer) (options, bool) {
	opts, err := parseOptions(args)
	if err == nil {
		return opts, true
	}

	var flagsErr *flags.Error
	if !errors.As(err, &flagsErr) {
		logger.New(w, slog.LevelInfo).Error("invalid configuration", "error", err)
	}

	return opts, false
}

func (o *options) validate() error {
	if o.OwnerID == 0 {
		return errors.New("owner id must not be zero")
	}

	if o.GroupChatID == 0 {
		return errors.New("group chat id must not be zero")
	}

	if o.OwnerID == o.GroupChatID {
		return errors.New("owner id and group chat id must differ")
	}

	if o.Transport == transportWebhook && o.WebhookURL == "" {
		return errors.New("webhook url is required for webhook transport")
	}

	if o.Port <= 0 || o.Port > 65535 {
		return fmt.Errorf("invalid port %d", o.Port)
	}

	if _, err := logger.ParseLevel(o.LogLevel); err != nil {
		return err
	}

	return nil
}

func (o *options) level() slog.Level {
	level, _ := logger.ParseLevel(o.LogLevel)
	return level
}

func (o *options) addr() string {
	return ":" + strconv.Itoa(o.Port)
}

func (o *options) relayMode() relay.RelayMode {
	return relay.RelayMode(o.RelayTo)
}
