package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"nuclight.org/relay-tg-bot/app/blocklist"
	e "nuclight.org/relay-tg-bot/pkg/entities"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

const (
	owner e.Identity = 1
	group e.Identity = -100
)

type fakeSender struct {
	sent     []e.Outgoing
	answered []string
	failTo   map[e.Identity]error
	failIf   func(out e.Outgoing) error
}

func (s *fakeSender) Send(_ context.Context, out e.Outgoing) (e.Ack, error) {
	if err := s.failTo[out.To]; err != nil {
		return e.Ack{}, err
	}
	if s.failIf != nil {
		if err := s.failIf(out); err != nil {
			return e.Ack{}, err
		}
	}
	s.sent = append(s.sent, out)
	return e.Ack{MessageID: len(s.sent)}, nil
}

func (s *fakeSender) AnswerCallback(_ context.Context, callbackID, _ string) error {
	s.answered = append(s.answered, callbackID)
	return nil
}

func (s *fakeSender) to(id e.Identity) []e.Outgoing {
	var res []e.Outgoing
	for _, out := range s.sent {
		if out.To == id {
			res = append(res, out)
		}
	}
	return res
}

func (s *fakeSender) reset() {
	s.sent = nil
	s.answered = nil
}

var errChatNotFound = errors.New("Bad Request: chat not found")

// failTextTo fails every text send toward id.
func failTextTo(id e.Identity) func(e.Outgoing) error {
	return func(out e.Outgoing) error {
		if out.Kind == e.KindText && out.To == id {
			return errChatNotFound
		}
		return nil
	}
}

func newTestRouter(t *testing.T) (*Router, *fakeSender) {
	t.Helper()

	sender := &fakeSender{failTo: map[e.Identity]error{}}
	store := &blocklist.FileStore{Path: filepath.Join(t.TempDir(), "blocked.txt")}

	r := &Router{
		Log:          testLog,
		Owner:        owner,
		Group:        group,
		RelayTo:      RelayToOwner,
		ReplyButtons: true,
		Blocks:       blocklist.Load(context.Background(), testLog, store),
		Replies:      &ReplyState{},
		Dispatcher:   &Dispatcher{Sender: sender},
	}

	return r, sender
}

func textFrom(id e.Identity, text string) e.Message {
	return e.Message{
		Sender: e.User{ID: id, Name: "Tester"},
		ChatID: id,
		Kind:   e.KindText,
		Text:   text,
	}
}

func requireSingleText(t *testing.T, outs []e.Outgoing, want string) {
	t.Helper()
	require.Len(t, outs, 1)
	require.Equal(t, e.KindText, outs[0].Kind)
	require.Equal(t, want, outs[0].Text)
}
