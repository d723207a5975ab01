package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	e "nuclight.org/relay-tg-bot/pkg/entities"
	"nuclight.org/relay-tg-bot/pkg/logger"
)

// Fetcher is the long polling part of tgbotapi.BotAPI.
type Fetcher interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// UpdateHandler routes normalized updates.
type UpdateHandler interface {
	Handle(ctx context.Context, upd e.Update) e.Result
}

var allowedUpdates = []string{"message", "callback_query"}

// Poller fetches updates with getUpdates and hands them to the handler one by
// one, in the order telegram returns them.
type Poller struct {
	Log        logger.Logger
	Fetcher    Fetcher
	Handler    UpdateHandler
	Timeout    int // long polling timeout in seconds
	RetryDelay time.Duration

	offset int
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	log := p.Log.With("transport", "polling")
	log.Info("polling started")

	for {
		if ctx.Err() != nil {
			log.Info("polling stopped")
			return nil
		}

		conf := tgbotapi.NewUpdate(p.offset)
		conf.Timeout = p.Timeout
		conf.AllowedUpdates = allowedUpdates

		updates, err := p.fetch(ctx, conf)
		if ctx.Err() != nil {
			continue
		}
		if err != nil {
			log.Warn("getting updates", "offset", p.offset, "error", err)
			sleep(ctx, p.RetryDelay)
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= p.offset {
				p.offset = update.UpdateID + 1
			}

			handleUpdate(ctx, log, p.Handler, update)
		}
	}
}

// fetch returns as soon as ctx is done. The abandoned request finishes in the
// background; its updates were not confirmed and come again on the next start.
func (p *Poller) fetch(ctx context.Context, conf tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	type fetched struct {
		updates []tgbotapi.Update
		err     error
	}

	done := make(chan fetched, 1)
	go func() {
		updates, err := p.Fetcher.GetUpdates(conf)
		done <- fetched{updates, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.updates, res.err
	}
}

// Offset is the id of the next update to fetch.
func (p *Poller) Offset() int {
	return p.offset
}

func handleUpdate(ctx context.Context, log logger.Logger, h UpdateHandler, update tgbotapi.Update) {
	log = log.With("tg_update_id", update.UpdateID)

	defer func() {
		if err := recover(); err != nil {
			log.Error("panic", "error", err)
		}
	}()

	upd, ok := Normalize(update)
	if !ok {
		log.Debug("update skipped")
		return
	}

	h.Handle(ctx, upd)
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		d = time.Second
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
