package relay

import (
	"fmt"

	e "nuclight.org/relay-tg-bot/pkg/entities"
)

const (
	textOwnerGreeting = "Hello! You are the owner of this bot.\n" +
		"Messages from users are relayed to you. Press \"Reply\" under a message to answer it, " +
		"or use /reply <user_id> <text>.\n" +
		"Anything else you send goes to the group.\n" +
		"Commands: /reply, /block <user_id>, /unblock <user_id>, /cancel."
	textUserGreeting = "Hello! Send me a message and it will be relayed to the administrator. " +
		"You will get an answer here."
	textUserAck         = "Your message has been delivered."
	textBlockedNotice   = "You have been blocked and your messages are not delivered."
	textUnsupported     = "Unsupported media type."
	textBroadcastAck    = "Message sent to the group."
	textReplyCancelled  = "Reply cancelled."
	textUsageReply      = "Usage: /reply <user_id> <text>"
	textUsageBlock      = "Usage: /block <user_id>"
	textUsageUnblock    = "Usage: /unblock <user_id>"
	textUnknownCallback = "Unknown action."
	buttonReply         = "Reply"
	buttonBlock         = "Block"
	callbackReply       = "reply"
	callbackBlock       = "block"
	callbackUnblock     = "unblock"
)

func textReplySent(target e.Identity) string {
	return fmt.Sprintf("Reply sent to %d.", target)
}

func textReplyFailed(target e.Identity, err error) string {
	return fmt.Sprintf("Failed to deliver reply to %d: %v", target, err)
}

func textBlockedTarget(target e.Identity) string {
	return fmt.Sprintf("Cannot reply to blocked user %d.", target)
}

func textBroadcastFailed(err error) string {
	return fmt.Sprintf("Failed to send message to the group: %v", err)
}

func textUserFailed(err error) string {
	return fmt.Sprintf("Your message could not be delivered: %v", err)
}

func textBlocked(target e.Identity) string {
	return fmt.Sprintf("User %d blocked.", target)
}

func textUnblocked(target e.Identity) string {
	return fmt.Sprintf("User %d unblocked.", target)
}

func textModerationFailed(target e.Identity, err error) string {
	return fmt.Sprintf("Failed to update block list for %d: %v", target, err)
}

func textReplyPrompt(target e.Identity) string {
	return fmt.Sprintf("Send your reply to %d. Use /cancel to abort.", target)
}

func textAttribution(sender e.User) string {
	if sender.Name == "" {
		return fmt.Sprintf("From %d", sender.ID)
	}
	return fmt.Sprintf("From %s (ID %d)", sender.Name, sender.ID)
}

// callbackData encodes a button action bound to a user, e.g. "reply:42".
func callbackData(action string, target e.Identity) string {
	return action + ":" + target.String()
}
