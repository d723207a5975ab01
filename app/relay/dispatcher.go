package relay

import (
	"context"
	"fmt"

	e "nuclight.org/relay-tg-bot/pkg/entities"
	"nuclight.org/relay-tg-bot/pkg/metrics"
)

// Sender is the outbound side of the messaging platform.
type Sender interface {
	Send(ctx context.Context, out e.Outgoing) (e.Ack, error)
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

type Outcome int

const (
	OutcomeSent Outcome = iota
	OutcomeUnsupported

	// OutcomePartial means the content was delivered but the separate
	// attribution text was not. Dispatch returns it with the send error.
	OutcomePartial
)

// Extra holds decorations added to a relayed message.
type Extra struct {
	// Attribution is prepended to the text or caption
	Attribution string

	// Markup is attached to the message
	Markup *e.Markup
}

func (x Extra) empty() bool {
	return x.Attribution == "" && x.Markup == nil
}

// Dispatcher sends a message to a destination with the send primitive matching
// its kind.
type Dispatcher struct {
	Sender  Sender
	Metrics *metrics.Metrics
}

// Dispatch sends msg to the destination. An unsupported kind is reported as
// OutcomeUnsupported and nothing is sent. A sticker whose attribution could not
// follow it is reported as OutcomePartial.
func (d *Dispatcher) Dispatch(ctx context.Context, to e.Identity, msg e.Message, extra Extra) (Outcome, error) {
	out := e.Outgoing{
		Kind:    msg.Kind,
		To:      to,
		FileRef: msg.FileRef,
		Markup:  extra.Markup,
	}

	switch msg.Kind {
	case e.KindText:
		out.Text = prepend(extra.Attribution, msg.Text)
	case e.KindPhoto, e.KindVideo, e.KindDocument, e.KindAudio, e.KindVoice:
		out.Caption = prepend(extra.Attribution, msg.Caption)
	case e.KindSticker:
		// sticker can carry neither caption nor markup, they go in a separate text
		out.Markup = nil
		if err := d.send(ctx, out); err != nil {
			return OutcomeSent, err
		}

		if extra.empty() {
			return OutcomeSent, nil
		}

		err := d.send(ctx, e.Outgoing{
			Kind:   e.KindText,
			To:     to,
			Text:   extra.Attribution,
			Markup: extra.Markup,
		})
		if err != nil {
			return OutcomePartial, err
		}

		return OutcomeSent, nil
	default:
		return OutcomeUnsupported, nil
	}

	return OutcomeSent, d.send(ctx, out)
}

// SendText sends a plain text message.
func (d *Dispatcher) SendText(ctx context.Context, to e.Identity, text string) error {
	return d.send(ctx, e.Outgoing{Kind: e.KindText, To: to, Text: text})
}

func (d *Dispatcher) send(ctx context.Context, out e.Outgoing) error {
	_, err := d.Sender.Send(ctx, out)
	d.Metrics.ObserveDelivery(string(out.Kind), err)
	if err != nil {
		return fmt.Errorf("sending %s: %w", out.Kind, err)
	}

	return nil
}

func prepend(attribution, body string) string {
	switch {
	case attribution == "":
		return body
	case body == "":
		return attribution
	default:
		return attribution + "\n\n" + body
	}
}
