package entities

import "strconv"

// Identity is a telegram user or chat id.
type Identity int64

func (id Identity) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseIdentity parses a decimal identity.
func ParseIdentity(s string) (Identity, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return Identity(v), nil
}

type User struct {
	ID   Identity
	Name string
}

// Kind is a content kind of the message. A message has exactly one kind,
// picked once when the message is normalized.
type Kind string

const (
	KindText        Kind = "text"
	KindPhoto       Kind = "photo"
	KindVideo       Kind = "video"
	KindDocument    Kind = "document"
	KindAudio       Kind = "audio"
	KindVoice       Kind = "voice"
	KindSticker     Kind = "sticker"
	KindUnsupported Kind = "unsupported"
)

type Message struct {
	UpdateID int
	Sender   User
	ChatID   Identity
	Kind     Kind
	Text     string
	Caption  string
	FileRef  string // file id for media kinds
}

// Callback is a press on an inline button attached to a relayed message.
type Callback struct {
	ID     string
	Sender User
	Data   string
}

// Update is a normalized inbound event. Exactly one of Message and Callback is set.
type Update struct {
	ID       int
	Message  *Message
	Callback *Callback
}
