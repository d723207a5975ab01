package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"nuclight.org/relay-tg-bot/app/blocklist"
	"nuclight.org/relay-tg-bot/app/relay"
	"nuclight.org/relay-tg-bot/app/server"
	"nuclight.org/relay-tg-bot/app/storage"
	"nuclight.org/relay-tg-bot/app/telegram"
	e "nuclight.org/relay-tg-bot/pkg/entities"
	"nuclight.org/relay-tg-bot/pkg/logger"
	"nuclight.org/relay-tg-bot/pkg/metrics"
)

var Revision = "dev"

func main() {
	os.Exit(run())
}

// run wires the bot and blocks until it is stopped, it returns the exit code.
func run() int {
	_ = godotenv.Load()

	opts, ok := loadOptions(os.Args[1:], os.Stderr)
	if !ok {
		return 1
	}

	if opts.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{Dsn: opts.SentryDSN, Release: Revision})
		if err != nil {
			logger.NewLogger(opts.level()).Error("initializing sentry", "error", err)
			return 1
		}
		defer sentry.Flush(2 * time.Second)
	}

	log := logger.NewLogger(opts.level())
	log.Info("starting bot", "revision", Revision, "transport", opts.Transport, "relay_to", opts.RelayTo)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := openStore(ctx, &opts)
	if err != nil {
		log.Error("opening block store", "error", err)
		return 1
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error("closing block store", "error", err)
		}
	}()

	bot, err := tgbotapi.NewBotAPI(opts.TelegramAPIToken)
	if err != nil {
		log.Error("creating bot api", "error", err)
		return 1
	}

	log.Info("bot api created", "username", bot.Self.UserName)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	blocks := blocklist.Load(ctx, log, store)
	m.SetBlocked(blocks.Len())

	router := &relay.Router{
		Log:           log,
		Owner:         e.Identity(opts.OwnerID),
		Group:         e.Identity(opts.GroupChatID),
		RelayTo:       opts.relayMode(),
		NotifyBlocked: opts.NotifyBlocked,
		ReplyButtons:  !opts.DisableReplyButtons,
		Blocks:        blocks,
		Replies:       &relay.ReplyState{},
		Dispatcher: &relay.Dispatcher{
			Sender:  &telegram.Client{Bot: bot},
			Metrics: m,
		},
		Metrics: m,
	}

	srv := &server.Server{
		Log:      log,
		Addr:     opts.addr(),
		Gatherer: reg,
	}

	var ingest func(ctx context.Context) error
	switch opts.Transport {
	case transportWebhook:
		url, err := telegram.RegisterWebhook(bot, opts.WebhookURL)
		if err != nil {
			log.Error("registering webhook", "error", err)
			return 1
		}
		log.Info("webhook registered", "url", url)

		srv.Webhook = &telegram.Webhook{Log: log, Handler: router}
		srv.WebhookPath = telegram.WebhookPath
	default:
		if err := telegram.DeleteWebhook(bot); err != nil {
			log.Error("deleting webhook", "error", err)
			return 1
		}

		poller := &telegram.Poller{
			Log:        log,
			Fetcher:    bot,
			Handler:    router,
			Timeout:    opts.PollTimeout,
			RetryDelay: 3 * time.Second,
		}
		ingest = poller.Run
	}

	var (
		wg     sync.WaitGroup
		failed atomic.Bool
	)
	start := func(name string, fn func(ctx context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				log.Error("component failed", "component", name, "error", err)
				failed.Store(true)
				cancel()
			}
		}()
	}

	start("http", srv.Run)
	if ingest != nil {
		start("poller", ingest)
	}

	<-ctx.Done()
	log.Info("stopping bot")

	wg.Wait()

	if failed.Load() {
		return 1
	}

	return 0
}

func openStore(ctx context.Context, opts *options) (blocklist.Store, func() error, error) {
	if opts.BlockStore == storeSQLite {
		if err := os.MkdirAll(filepath.Dir(opts.DBPath), 0o755); err != nil {
			return nil, nil, err
		}

		db, err := storage.NewSQLite(ctx, opts.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	}

	return &blocklist.FileStore{Path: opts.BlockListPath}, func() error { return nil }, nil
}
