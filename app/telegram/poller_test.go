package telegram

import (
	"context"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
)

type scriptedFetcher struct {
	batches [][]tgbotapi.Update
	errs    []error
	offsets []int
	cancel  context.CancelFunc
}

func (f *scriptedFetcher) GetUpdates(conf tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	f.offsets = append(f.offsets, conf.Offset)

	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}

	if len(f.batches) == 0 {
		f.cancel()
		return nil, nil
	}

	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func TestPollerAdvancesOffset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := &scriptedFetcher{
		batches: [][]tgbotapi.Update{
			{privateText(10, 5, "a"), privateText(11, 5, "b")},
			{privateText(12, 5, "c")},
		},
		cancel: cancel,
	}
	handler := &recordingHandler{}

	p := &Poller{Log: testLog, Fetcher: fetcher, Handler: handler, Timeout: 1}
	require.NoError(t, p.Run(ctx))

	require.Equal(t, []int{10, 11, 12}, handler.ids())
	require.Equal(t, []int{0, 12, 13}, fetcher.offsets)
	require.Equal(t, 13, p.Offset())
}

func TestPollerRetriesOnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := &scriptedFetcher{
		batches: [][]tgbotapi.Update{{privateText(1, 5, "a")}},
		errs:    []error{errTimeout, nil},
		cancel:  cancel,
	}
	handler := &recordingHandler{}

	p := &Poller{Log: testLog, Fetcher: fetcher, Handler: handler, RetryDelay: time.Millisecond}
	require.NoError(t, p.Run(ctx))

	require.Equal(t, []int{1}, handler.ids())
	require.Equal(t, []int{0, 0, 2}, fetcher.offsets)
}

func TestPollerSurvivesPanicAndSkips(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	skipped := privateText(2, 5, "group")
	skipped.Message.Chat.Type = "group"

	fetcher := &scriptedFetcher{
		batches: [][]tgbotapi.Update{{privateText(1, 5, "a"), skipped, privateText(3, 5, "c")}},
		cancel:  cancel,
	}
	handler := &recordingHandler{panicOn: 1}

	p := &Poller{Log: testLog, Fetcher: fetcher, Handler: handler}
	require.NoError(t, p.Run(ctx))

	require.Equal(t, []int{3}, handler.ids())
	require.Equal(t, 4, p.Offset())
}

func TestPollerStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &scriptedFetcher{cancel: cancel}
	p := &Poller{Log: testLog, Fetcher: fetcher, Handler: &recordingHandler{}}

	require.NoError(t, p.Run(ctx))
	require.Empty(t, fetcher.offsets)
}

// stuckFetcher blocks in GetUpdates until released, like a long poll with
// nothing to deliver.
type stuckFetcher struct {
	called  chan struct{}
	release chan struct{}
}

func (f *stuckFetcher) GetUpdates(tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	close(f.called)
	<-f.release
	return nil, nil
}

func TestPollerStopsDuringLongPoll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &stuckFetcher{called: make(chan struct{}), release: make(chan struct{})}
	defer close(fetcher.release)

	p := &Poller{Log: testLog, Fetcher: fetcher, Handler: &recordingHandler{}, Timeout: 60}

	stopped := make(chan error, 1)
	go func() { stopped <- p.Run(ctx) }()

	<-fetcher.called
	cancel()

	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller kept waiting for getUpdates after cancel")
	}
	require.Equal(t, 0, p.Offset())
}
