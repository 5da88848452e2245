package models

// Transport-neutral chat types. The telegram adapter converts between these
// and its wire types so the services and render layers stay testable without
// the bot SDK.

// EntityBold is the only entity type the render layer cares about: the
// statement description is the single bold segment of the message.
const EntityBold = "bold"

// MessageEntity marks a styled span of a chat message. Offset and Length are
// in UTF-16 code units, as delivered by the chat backend.
type MessageEntity struct {
	Type   string
	Offset int
	Length int
}

// Button is one inline keyboard button: visible label plus the opaque
// payload returned when pressed.
type Button struct {
	Text string
	Data string
}

// Keyboard is an inline keyboard, rows of buttons.
type Keyboard [][]Button

func (k Keyboard) Equal(other Keyboard) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if len(k[i]) != len(other[i]) {
			return false
		}
		for j := range k[i] {
			if k[i][j] != other[i][j] {
				return false
			}
		}
	}
	return true
}

// ChatMessage is a previously-posted chat message as observed in a callback.
type ChatMessage struct {
	ChatID    int64
	MessageID int
	Text      string // markup already stripped by the chat backend
	Entities  []MessageEntity
	Keyboard  Keyboard
}

// CallbackEvent is one inbound button press.
type CallbackEvent struct {
	ID      string
	UserID  int64
	ChatID  int64
	Data    string
	Message *ChatMessage
}
