package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	e "nuclight.org/relay-tg-bot/pkg/entities"
)

// Normalize turns a telegram update into a relay update. It reports false for
// updates the relay does not handle: edits, channel posts, messages without
// sender and messages outside of private chats.
func Normalize(update tgbotapi.Update) (e.Update, bool) {
	if cq := update.CallbackQuery; cq != nil {
		if cq.From == nil {
			return e.Update{}, false
		}

		return e.Update{
			ID: update.UpdateID,
			Callback: &e.Callback{
				ID:     cq.ID,
				Sender: takeUser(cq.From),
				Data:   cq.Data,
			},
		}, true
	}

	m := update.Message
	if m == nil || m.From == nil || m.Chat == nil || !m.Chat.IsPrivate() {
		return e.Update{}, false
	}

	msg := &e.Message{
		UpdateID: update.UpdateID,
		Sender:   takeUser(m.From),
		ChatID:   e.Identity(m.Chat.ID),
		Text:     m.Text,
		Caption:  m.Caption,
	}
	msg.Kind, msg.FileRef = takeContent(m)

	return e.Update{ID: update.UpdateID, Message: msg}, true
}

// takeContent picks the kind in fixed priority:
// text, photo, video, document, audio, voice, sticker.
func takeContent(m *tgbotapi.Message) (e.Kind, string) {
	switch {
	case m.Text != "":
		return e.KindText, ""
	case len(m.Photo) > 0:
		return e.KindPhoto, largestPhoto(m.Photo).FileID
	case m.Video != nil:
		return e.KindVideo, m.Video.FileID
	case m.Document != nil:
		return e.KindDocument, m.Document.FileID
	case m.Audio != nil:
		return e.KindAudio, m.Audio.FileID
	case m.Voice != nil:
		return e.KindVoice, m.Voice.FileID
	case m.Sticker != nil:
		return e.KindSticker, m.Sticker.FileID
	default:
		return e.KindUnsupported, ""
	}
}

func largestPhoto(sizes []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}
	return best
}

func takeUser(user *tgbotapi.User) e.User {
	return e.User{
		ID:   e.Identity(user.ID),
		Name: takeUserName(user),
	}
}

func takeUserName(user *tgbotapi.User) string {
	var sb strings.Builder

	if user.FirstName != "" {
		sb.WriteString(user.FirstName)
	}

	if user.LastName != "" {
		if sb.Len() > 0 {
			sb.WriteRune(' ')
		}
		sb.WriteString(user.LastName)
	}

	if user.UserName != "" {
		if sb.Len() > 0 {
			sb.WriteString(" (@")
			sb.WriteString(user.UserName)
			sb.WriteRune(')')
		} else {
			sb.WriteRune('@')
			sb.WriteString(user.UserName)
		}
	}

	return sb.String()
}
