package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	e "nuclight.org/relay-tg-bot/pkg/entities"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeBot struct {
	sent      []tgbotapi.Chattable
	requested []tgbotapi.Chattable
	sendErr   error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if b.sendErr != nil {
		return tgbotapi.Message{}, b.sendErr
	}
	b.sent = append(b.sent, c)
	return tgbotapi.Message{MessageID: len(b.sent)}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.requested = append(b.requested, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

type recordingHandler struct {
	updates []e.Update
	panicOn int
}

func (h *recordingHandler) Handle(_ context.Context, upd e.Update) e.Result {
	if h.panicOn != 0 && upd.ID == h.panicOn {
		panic("boom")
	}
	h.updates = append(h.updates, upd)
	return e.Result{Kind: e.ResultIgnored}
}

func (h *recordingHandler) ids() []int {
	ids := make([]int, 0, len(h.updates))
	for _, u := range h.updates {
		ids = append(ids, u.ID)
	}
	return ids
}

var errTimeout = errors.New("timeout")

func privateText(updateID int, from int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: updateID,
		Message: &tgbotapi.Message{
			MessageID: updateID,
			From:      &tgbotapi.User{ID: from, FirstName: "Ann"},
			Chat:      &tgbotapi.Chat{ID: from, Type: "private"},
			Text:      text,
		},
	}
}
