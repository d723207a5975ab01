package telegram

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"nuclight.org/relay-tg-bot/pkg/logger"
)

const (
	WebhookPath = "/webhook"

	// recentUpdates is how many update ids are remembered to skip redeliveries
	recentUpdates = 256

	maxUpdateBytes = 1 << 20
)

// Webhook receives one update per request. It always answers 200 "ok":
// routing problems are reported to chat participants, not to telegram.
type Webhook struct {
	Log     logger.Logger
	Handler UpdateHandler

	mu    sync.Mutex
	seen  map[int]struct{}
	order []int
}

func (w *Webhook) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	log := w.Log.With("transport", "webhook")

	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(rw, req.Body, maxUpdateBytes)).Decode(&update); err != nil {
		log.Warn("decoding update", "error", err)
		writeOK(rw)
		return
	}

	if w.redelivered(update.UpdateID) {
		log.Debug("update already handled", "tg_update_id", update.UpdateID)
		writeOK(rw)
		return
	}

	handleUpdate(req.Context(), log, w.Handler, update)
	writeOK(rw)
}

// redelivered reports whether id was seen before and remembers it otherwise.
func (w *Webhook) redelivered(id int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.seen == nil {
		w.seen = make(map[int]struct{}, recentUpdates)
	}

	if _, ok := w.seen[id]; ok {
		return true
	}

	w.seen[id] = struct{}{}
	w.order = append(w.order, id)
	if len(w.order) > recentUpdates {
		delete(w.seen, w.order[0])
		w.order = w.order[1:]
	}

	return false
}

func writeOK(rw http.ResponseWriter) {
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write([]byte("ok"))
}

// RegisterWebhook drops any previous webhook and points telegram to
// baseURL + WebhookPath. It returns the registered url.
func RegisterWebhook(bot BotAPI, baseURL string) (string, error) {
	if err := DeleteWebhook(bot); err != nil {
		return "", err
	}

	url := strings.TrimRight(baseURL, "/") + WebhookPath
	conf, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return "", fmt.Errorf("building webhook config: %w", err)
	}
	conf.AllowedUpdates = allowedUpdates

	if _, err := bot.Request(conf); err != nil {
		return "", fmt.Errorf("setting webhook: %w", err)
	}

	return url, nil
}

// DeleteWebhook removes the webhook, getUpdates does not work while one is set.
func DeleteWebhook(bot BotAPI) error {
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("deleting webhook: %w", err)
	}
	return nil
}
