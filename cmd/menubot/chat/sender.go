// Package chat implements the interactive terminal console: a bubbletea
// program that plays the Telegram client against the real dispatcher.
package chat

import (
	"context"

	"menubot/internal/bot"

	tea "github.com/charmbracelet/bubbletea"
)

// replyMsg carries one bot reply into the bubbletea loop.
type replyMsg struct {
	chatID int64
	reply  bot.Reply
}

// Sender queues dispatcher replies for the console model. It implements
// bot.Sender.
type Sender struct {
	ch chan replyMsg
}

// NewSender creates a Sender buffering up to size replies.
func NewSender(size int) *Sender {
	if size <= 0 {
		size = 64
	}
	return &Sender{ch: make(chan replyMsg, size)}
}

// Send enqueues r, blocking while the buffer is full.
func (s *Sender) Send(ctx context.Context, chatID int64, r bot.Reply) error {
	select {
	case s.ch <- replyMsg{chatID: chatID, reply: r}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// wait returns a command that delivers the next queued reply.
func (s *Sender) wait() tea.Cmd {
	return func() tea.Msg {
		return <-s.ch
	}
}
