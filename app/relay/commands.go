package relay

import (
	"context"
	"strings"
	"unicode"

	e "nuclight.org/relay-tg-bot/pkg/entities"
	"nuclight.org/relay-tg-bot/pkg/logger"
)

const (
	cmdReply   = "reply"
	cmdBlock   = "block"
	cmdUnblock = "unblock"
	cmdStart   = "start"
	cmdCancel  = "cancel"
)

var knownCommands = map[string]struct{}{
	cmdReply:   {},
	cmdBlock:   {},
	cmdUnblock: {},
	cmdStart:   {},
	cmdCancel:  {},
}

type command struct {
	name string
	args []string
	rest string // raw text after the command name
}

// parseCommand recognizes "/name[@bot] args..." for the known commands only.
func parseCommand(msg e.Message) (command, bool) {
	if msg.Kind != e.KindText {
		return command{}, false
	}

	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return command{}, false
	}

	head, rest := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		head, rest = text[:i], strings.TrimSpace(text[i:])
	}

	name, _, _ := strings.Cut(strings.TrimPrefix(head, "/"), "@")
	name = strings.ToLower(name)
	if _, ok := knownCommands[name]; !ok {
		return command{}, false
	}

	return command{
		name: name,
		args: strings.Fields(rest),
		rest: rest,
	}, true
}

func (r *Router) runCommand(ctx context.Context, log logger.Logger, cmd command) e.Result {
	log = log.With("command", cmd.name)

	switch cmd.name {
	case cmdReply:
		return r.cmdReply(ctx, log, cmd)
	case cmdBlock:
		return r.cmdModerate(ctx, log, cmd, true)
	case cmdUnblock:
		return r.cmdModerate(ctx, log, cmd, false)
	case cmdStart:
		r.notify(ctx, log, r.Owner, textOwnerGreeting)
		return e.Result{Kind: e.ResultGreeting, Target: r.Owner}
	case cmdCancel:
		r.Replies.Clear()
		r.notify(ctx, log, r.Owner, textReplyCancelled)
		return e.Result{Kind: e.ResultCommand, Note: "reply cancelled"}
	default:
		return e.Result{Kind: e.ResultIgnored, Note: "unknown command"}
	}
}

func (r *Router) cmdReply(ctx context.Context, log logger.Logger, cmd command) e.Result {
	if len(cmd.args) < 2 {
		return r.usage(ctx, log, textUsageReply)
	}

	target, ok := parseTarget(cmd.args[0])
	if !ok {
		return r.usage(ctx, log, textUsageReply)
	}

	text := strings.TrimSpace(strings.TrimPrefix(cmd.rest, cmd.args[0]))
	msg := e.Message{
		Sender: e.User{ID: r.Owner},
		ChatID: r.Owner,
		Kind:   e.KindText,
		Text:   text,
	}

	return r.replyTo(ctx, log, target, msg)
}

func (r *Router) cmdModerate(ctx context.Context, log logger.Logger, cmd command, block bool) e.Result {
	usage := textUsageUnblock
	if block {
		usage = textUsageBlock
	}

	if len(cmd.args) != 1 {
		return r.usage(ctx, log, usage)
	}

	target, ok := parseTarget(cmd.args[0])
	if !ok {
		return r.usage(ctx, log, usage)
	}

	if err := r.moderate(ctx, log, target, block); err != nil {
		return e.Result{Kind: e.ResultFailed, Target: target, Note: err.Error()}
	}

	return e.Result{Kind: e.ResultCommand, Target: target, Note: cmd.name}
}

// parseTarget accepts user ids only. Users always have positive ids, chats
// and channels take the negative range.
func parseTarget(s string) (e.Identity, bool) {
	id, err := e.ParseIdentity(s)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (r *Router) usage(ctx context.Context, log logger.Logger, text string) e.Result {
	log.Info("malformed command")
	r.notify(ctx, log, r.Owner, text)

	return e.Result{Kind: e.ResultRefused, Note: "malformed command"}
}
