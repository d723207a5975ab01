package entities

// Outgoing is a single send request to the messaging platform.
type Outgoing struct {
	Kind    Kind
	To      Identity
	Text    string
	FileRef string
	Caption string
	Markup  *Markup
}

// Markup is a single row of inline buttons.
type Markup struct {
	Buttons []Button
}

type Button struct {
	Text string
	Data string
}

// Ack is returned by the platform for a delivered message.
type Ack struct {
	MessageID int
}
