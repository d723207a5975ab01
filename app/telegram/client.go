package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	e "nuclight.org/relay-tg-bot/pkg/entities"
)

// BotAPI is the part of tgbotapi.BotAPI used to talk to telegram.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Client sends relayed messages through the bot api.
type Client struct {
	Bot BotAPI
}

func (c *Client) Send(_ context.Context, out e.Outgoing) (e.Ack, error) {
	conf, err := buildChattable(out)
	if err != nil {
		return e.Ack{}, err
	}

	msg, err := c.Bot.Send(conf)
	if err != nil {
		return e.Ack{}, err
	}

	return e.Ack{MessageID: msg.MessageID}, nil
}

func (c *Client) AnswerCallback(_ context.Context, callbackID, text string) error {
	_, err := c.Bot.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

func buildChattable(out e.Outgoing) (tgbotapi.Chattable, error) {
	chatID := int64(out.To)
	file := tgbotapi.FileID(out.FileRef)
	markup := buildMarkup(out.Markup)

	switch out.Kind {
	case e.KindText:
		conf := tgbotapi.NewMessage(chatID, out.Text)
		conf.DisableWebPagePreview = true
		conf.ReplyMarkup = markup
		return conf, nil
	case e.KindPhoto:
		conf := tgbotapi.NewPhoto(chatID, file)
		conf.Caption = out.Caption
		conf.ReplyMarkup = markup
		return conf, nil
	case e.KindVideo:
		conf := tgbotapi.NewVideo(chatID, file)
		conf.Caption = out.Caption
		conf.ReplyMarkup = markup
		return conf, nil
	case e.KindDocument:
		conf := tgbotapi.NewDocument(chatID, file)
		conf.Caption = out.Caption
		conf.ReplyMarkup = markup
		return conf, nil
	case e.KindAudio:
		conf := tgbotapi.NewAudio(chatID, file)
		conf.Caption = out.Caption
		conf.ReplyMarkup = markup
		return conf, nil
	case e.KindVoice:
		conf := tgbotapi.NewVoice(chatID, file)
		conf.Caption = out.Caption
		conf.ReplyMarkup = markup
		return conf, nil
	case e.KindSticker:
		return tgbotapi.NewSticker(chatID, file), nil
	default:
		return nil, fmt.Errorf("unsupported outgoing kind: %s", out.Kind)
	}
}

// buildMarkup returns nil for no markup, typed nil would be sent as null.
func buildMarkup(m *e.Markup) any {
	if m == nil || len(m.Buttons) == 0 {
		return nil
	}

	row := make([]tgbotapi.InlineKeyboardButton, 0, len(m.Buttons))
	for _, b := range m.Buttons {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
	}

	return tgbotapi.NewInlineKeyboardMarkup(row)
}
