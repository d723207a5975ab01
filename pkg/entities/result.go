package entities

// Result is a routing decision made for a single inbound update.
type Result struct {
	Kind   ResultKind
	Target Identity
	Note   string
}

type ResultKind string

const (
	// ResultOwnerReply means the owner's message was delivered to the pending reply target
	ResultOwnerReply ResultKind = "owner_reply"

	// ResultOwnerBroadcast means the owner's message was sent to the group
	ResultOwnerBroadcast ResultKind = "owner_broadcast"

	// ResultUserRelayed means a user's message was relayed to the owner or the group
	ResultUserRelayed ResultKind = "user_relayed"

	// ResultCommand means an owner command was executed
	ResultCommand ResultKind = "command"

	// ResultCallback means an owner button press was handled
	ResultCallback ResultKind = "callback"

	// ResultGreeting means a /start greeting was sent
	ResultGreeting ResultKind = "greeting"

	// ResultDropped means a message from a blocked user was dropped
	ResultDropped ResultKind = "dropped"

	// ResultIgnored means the update was ignored without any reply
	ResultIgnored ResultKind = "ignored"

	// ResultUnsupported means the message kind can not be relayed
	ResultUnsupported ResultKind = "unsupported"

	// ResultRefused means the action targets a blocked user or is malformed
	ResultRefused ResultKind = "refused"

	// ResultFailed means the platform rejected an outbound send
	ResultFailed ResultKind = "failed"
)
