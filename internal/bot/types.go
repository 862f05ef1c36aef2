package bot

import (
	"context"
	"errors"

	"menubot/internal/store"
)

// Conversation errors.
var (
	// ErrEmptyInput is returned when a content step receives blank text.
	ErrEmptyInput = errors.New("empty input")

	// ErrUnauthorized is returned when a non-operator enters an admin flow.
	ErrUnauthorized = errors.New("not the operator")
)

// Inbound is one text event from a chat transport.
type Inbound struct {
	UserID int64
	ChatID int64
	Text   string
}

// Keyboard is a reply keyboard. A nil *Keyboard leaves the user's current
// keyboard as is.
type Keyboard struct {
	Remove bool
	Rows   [][]string
}

// RemoveKeyboard hides the user's keyboard.
func RemoveKeyboard() *Keyboard {
	return &Keyboard{Remove: true}
}

// Reply is one outgoing message.
type Reply struct {
	Text     string
	Keyboard *Keyboard
}

// Sender delivers replies. The dispatcher calls it once per message or
// chunk, in order.
type Sender interface {
	Send(ctx context.Context, chatID int64, r Reply) error
}

// Content is the tree the bot reads and edits. *store.Store implements it.
type Content interface {
	Ages() []string
	Seasons(age string) []string
	Topics(age, season string) []string
	HasAge(age string) bool
	HasSeason(age, season string) bool
	Get(age, season, topic string) (store.Record, bool)

	PutTopic(age, season, topic, text string) error
	DeleteTopic(age, season, topic string) error
	RenameTopic(age, season, oldTitle, newTitle string) error
	AppendMessage(age, season, topic, text string) error
	ReplaceMessage(age, season, topic string, index int, text string) error
	DeleteMessage(age, season, topic string, index int) error
}

// Journal records successful operator changes. *store.Journal implements it.
type Journal interface {
	Record(ctx context.Context, c store.Change) error
}
