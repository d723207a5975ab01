package relay

import (
	"context"
	"strings"
	"sync"

	"nuclight.org/relay-tg-bot/app/blocklist"
	e "nuclight.org/relay-tg-bot/pkg/entities"
	"nuclight.org/relay-tg-bot/pkg/logger"
	"nuclight.org/relay-tg-bot/pkg/metrics"
)

// RelayMode selects where messages of users are relayed to.
type RelayMode string

const (
	RelayToOwner RelayMode = "owner"
	RelayToGroup RelayMode = "group"
)

// Router decides what happens with every inbound update. Messages of the owner
// are replies (when a reply target is pending), commands or broadcasts to the
// group. Messages of other users are relayed to the owner or to the group with
// an attribution line, unless the user is blocked. Updates are routed one at a
// time.
type Router struct {
	// Log is a logger
	Log logger.Logger

	// Owner is the only user allowed to broadcast, reply and moderate
	Owner e.Identity

	// Group receives owner broadcasts, and user messages in group relay mode
	Group e.Identity

	// RelayTo is the destination of user messages
	RelayTo RelayMode

	// NotifyBlocked makes blocked users get a refusal instead of silence
	NotifyBlocked bool

	// ReplyButtons attaches "Reply" and "Block" buttons to relayed messages
	ReplyButtons bool

	// Blocks is the block list
	Blocks *blocklist.List

	// Replies is the pending reply target of the owner
	Replies *ReplyState

	// Dispatcher sends messages out
	Dispatcher *Dispatcher

	// Metrics is optional
	Metrics *metrics.Metrics

	mu sync.Mutex
}

// Handle routes a normalized update.
func (r *Router) Handle(ctx context.Context, upd e.Update) e.Result {
	switch {
	case upd.Message != nil:
		return r.Route(ctx, *upd.Message)
	case upd.Callback != nil:
		return r.HandleCallback(ctx, *upd.Callback)
	default:
		return e.Result{Kind: e.ResultIgnored, Note: "empty update"}
	}
}

// Route classifies msg by its sender and handles it.
func (r *Router) Route(ctx context.Context, msg e.Message) e.Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := r.Log.With("tg_update_id", msg.UpdateID, "user_id", msg.Sender.ID, "kind", msg.Kind)

	var res e.Result
	if msg.Sender.ID == r.Owner {
		res = r.routeOwner(ctx, log, msg)
	} else {
		res = r.routeUser(ctx, log, msg)
	}

	r.observe(log, res)

	return res
}

// HandleCallback handles a press on an inline button. Only the owner's
// presses are served.
func (r *Router) HandleCallback(ctx context.Context, cb e.Callback) e.Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := r.Log.With("user_id", cb.Sender.ID, "callback", cb.Data)

	res := r.callback(ctx, log, cb)
	r.observe(log, res)

	return res
}

func (r *Router) routeOwner(ctx context.Context, log logger.Logger, msg e.Message) e.Result {
	cmd, isCmd := parseCommand(msg)

	// /cancel must work while a reply is pending
	if !isCmd || cmd.name != cmdCancel {
		if target, ok := r.Replies.TakePending(); ok {
			return r.replyTo(ctx, log, target, msg)
		}
	}

	if isCmd {
		return r.runCommand(ctx, log, cmd)
	}

	return r.broadcast(ctx, log, msg)
}

func (r *Router) routeUser(ctx context.Context, log logger.Logger, msg e.Message) e.Result {
	sender := msg.Sender.ID

	if r.Blocks.Contains(sender) {
		log.Info("message from blocked user dropped")
		if r.NotifyBlocked {
			r.notify(ctx, log, sender, textBlockedNotice)
		}
		return e.Result{Kind: e.ResultDropped, Target: sender}
	}

	if cmd, ok := parseCommand(msg); ok {
		if cmd.name == cmdStart {
			r.notify(ctx, log, sender, textUserGreeting)
			return e.Result{Kind: e.ResultGreeting, Target: sender}
		}

		log.Warn("owner command from user ignored", "command", cmd.name)
		return e.Result{Kind: e.ResultIgnored, Target: sender, Note: "unauthorized"}
	}

	dest := r.userDestination()
	extra := Extra{Attribution: textAttribution(msg.Sender)}
	if r.ReplyButtons {
		extra.Markup = userMarkup(sender)
	}

	outcome, err := r.Dispatcher.Dispatch(ctx, dest, msg, extra)
	if outcome == OutcomePartial {
		// the content itself reached dest, only the attribution is missing
		log.Warn("sending attribution", "target", dest, "error", err)
		err = nil
	}
	if err != nil {
		log.Warn("relaying user message", "target", dest, "error", err)
		r.notify(ctx, log, sender, textUserFailed(err))
		return e.Result{Kind: e.ResultFailed, Target: dest, Note: err.Error()}
	}

	if outcome == OutcomeUnsupported {
		log.Info("unsupported message from user")
		r.notify(ctx, log, sender, textUnsupported)
		return e.Result{Kind: e.ResultUnsupported, Target: sender}
	}

	r.notify(ctx, log, sender, textUserAck)

	return e.Result{Kind: e.ResultUserRelayed, Target: dest}
}

// replyTo delivers an owner message to a user. The reply target has to be
// taken from ReplyState before the call.
func (r *Router) replyTo(ctx context.Context, log logger.Logger, target e.Identity, msg e.Message) e.Result {
	log = log.With("target", target)

	if r.Blocks.Contains(target) {
		log.Info("reply to blocked user refused")
		r.notify(ctx, log, r.Owner, textBlockedTarget(target))
		return e.Result{Kind: e.ResultRefused, Target: target, Note: "target is blocked"}
	}

	outcome, err := r.Dispatcher.Dispatch(ctx, target, msg, Extra{})
	if err != nil {
		log.Warn("delivering reply", "error", err)
		r.notify(ctx, log, r.Owner, textReplyFailed(target, err))
		return e.Result{Kind: e.ResultFailed, Target: target, Note: err.Error()}
	}

	if outcome == OutcomeUnsupported {
		r.notify(ctx, log, r.Owner, textUnsupported)
		return e.Result{Kind: e.ResultUnsupported, Target: target}
	}

	r.notify(ctx, log, r.Owner, textReplySent(target))

	return e.Result{Kind: e.ResultOwnerReply, Target: target}
}

func (r *Router) broadcast(ctx context.Context, log logger.Logger, msg e.Message) e.Result {
	outcome, err := r.Dispatcher.Dispatch(ctx, r.Group, msg, Extra{})
	if err != nil {
		log.Warn("broadcasting to group", "error", err)
		r.notify(ctx, log, r.Owner, textBroadcastFailed(err))
		return e.Result{Kind: e.ResultFailed, Target: r.Group, Note: err.Error()}
	}

	if outcome == OutcomeUnsupported {
		r.notify(ctx, log, r.Owner, textUnsupported)
		return e.Result{Kind: e.ResultUnsupported, Target: r.Group}
	}

	r.notify(ctx, log, r.Owner, textBroadcastAck)

	return e.Result{Kind: e.ResultOwnerBroadcast, Target: r.Group}
}

func (r *Router) callback(ctx context.Context, log logger.Logger, cb e.Callback) e.Result {
	if cb.Sender.ID != r.Owner {
		log.Warn("callback from user ignored")
		return e.Result{Kind: e.ResultIgnored, Target: cb.Sender.ID, Note: "unauthorized"}
	}

	action, arg, _ := strings.Cut(cb.Data, ":")
	target, ok := parseTarget(arg)
	if !ok {
		r.answer(ctx, log, cb.ID, textUnknownCallback)
		return e.Result{Kind: e.ResultRefused, Note: "malformed callback"}
	}

	switch action {
	case callbackReply:
		r.Replies.SetPending(target)
		r.answer(ctx, log, cb.ID, "")
		r.notify(ctx, log, r.Owner, textReplyPrompt(target))
		return e.Result{Kind: e.ResultCallback, Target: target, Note: action}
	case callbackBlock, callbackUnblock:
		r.answer(ctx, log, cb.ID, "")
		if err := r.moderate(ctx, log, target, action == callbackBlock); err != nil {
			return e.Result{Kind: e.ResultFailed, Target: target, Note: err.Error()}
		}
		return e.Result{Kind: e.ResultCallback, Target: target, Note: action}
	default:
		r.answer(ctx, log, cb.ID, textUnknownCallback)
		return e.Result{Kind: e.ResultRefused, Note: "unknown callback"}
	}
}

// moderate blocks or unblocks target and tells the owner about the outcome.
func (r *Router) moderate(ctx context.Context, log logger.Logger, target e.Identity, block bool) error {
	log = log.With("target", target, "block", block)

	var err error
	if block {
		err = r.Blocks.Add(ctx, target)
	} else {
		err = r.Blocks.Remove(ctx, target)
	}

	if err != nil {
		log.Error("updating block list", "error", err)
		r.notify(ctx, log, r.Owner, textModerationFailed(target, err))
		return err
	}

	r.Metrics.SetBlocked(r.Blocks.Len())
	log.Info("block list updated")

	if block {
		r.notify(ctx, log, r.Owner, textBlocked(target))
	} else {
		r.notify(ctx, log, r.Owner, textUnblocked(target))
	}

	return nil
}

func (r *Router) userDestination() e.Identity {
	if r.RelayTo == RelayToGroup {
		return r.Group
	}
	return r.Owner
}

func (r *Router) notify(ctx context.Context, log logger.Logger, to e.Identity, text string) {
	if err := r.Dispatcher.SendText(ctx, to, text); err != nil {
		log.Warn("sending notice", "to", to, "error", err)
	}
}

func (r *Router) answer(ctx context.Context, log logger.Logger, callbackID, text string) {
	if err := r.Dispatcher.Sender.AnswerCallback(ctx, callbackID, text); err != nil {
		log.Warn("answering callback", "error", err)
	}
}

func (r *Router) observe(log logger.Logger, res e.Result) {
	r.Metrics.ObserveRoute(string(res.Kind))
	log.Info("update routed", "result", res.Kind, "target", res.Target, "note", res.Note)
}

func userMarkup(user e.Identity) *e.Markup {
	return &e.Markup{Buttons: []e.Button{
		{Text: buttonReply, Data: callbackData(callbackReply, user)},
		{Text: buttonBlock, Data: callbackData(callbackBlock, user)},
	}}
}
