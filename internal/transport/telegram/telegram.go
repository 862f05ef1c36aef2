// Package telegram connects the bot dispatcher to the Telegram Bot API
// through long polling.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"menubot/internal/bot"
	"menubot/internal/logging"

	tele "gopkg.in/telebot.v3"
)

// Handler consumes inbound events. *bot.Dispatcher implements it.
type Handler interface {
	Handle(ctx context.Context, in bot.Inbound) error
}

// Settings configures the transport.
type Settings struct {
	Token       string
	PollTimeout time.Duration
	ParseMode   string

	// Offline skips the getMe call; used by tests.
	Offline bool
}

// Transport receives updates and delivers replies. It implements bot.Sender.
//
// telebot hands updates over in arrival order. Each user gets a mailbox
// drained by one goroutine, so a user's events are handled in order while
// different users proceed concurrently.
type Transport struct {
	bot     *tele.Bot
	handler Handler
	ctx     context.Context

	mu        sync.Mutex
	mailboxes map[int64][]bot.Inbound
	wg        sync.WaitGroup
}

// New creates the Telegram client. Bind must be called before Run.
func New(s Settings) (*Transport, error) {
	if s.PollTimeout <= 0 {
		s.PollTimeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:       s.Token,
		Poller:      &tele.LongPoller{Timeout: s.PollTimeout},
		ParseMode:   tele.ParseMode(s.ParseMode),
		Offline:     s.Offline,
		Synchronous: true,
		OnError: func(err error, c tele.Context) {
			logging.TransportError("telegram: %v", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Transport{
		bot:       b,
		ctx:       context.Background(),
		mailboxes: make(map[int64][]bot.Inbound),
	}, nil
}

// Bind sets the handler for inbound text.
func (t *Transport) Bind(h Handler) {
	t.handler = h
	t.bot.Handle("/start", t.onStart)
	t.bot.Handle(tele.OnText, t.onText)
}

// Run polls for updates until ctx is cancelled.
func (t *Transport) Run(ctx context.Context) error {
	if t.handler == nil {
		return errors.New("telegram transport has no handler")
	}
	t.ctx = ctx

	done := make(chan struct{})
	go func() {
		defer close(done)
		t.bot.Start()
	}()
	logging.Transport("telegram polling started")

	<-ctx.Done()
	t.bot.Stop()
	<-done
	t.wg.Wait()
	logging.Transport("telegram polling stopped")
	return nil
}

// Send delivers one reply to chatID.
func (t *Transport) Send(ctx context.Context, chatID int64, r bot.Reply) error {
	var opts []interface{}
	if m := Markup(r.Keyboard); m != nil {
		opts = append(opts, m)
	}
	if _, err := t.bot.Send(tele.ChatID(chatID), r.Text, opts...); err != nil {
		return fmt.Errorf("send to %d: %w", chatID, err)
	}
	return nil
}

// onStart normalizes "/start", "/start@name" and deep-link payloads.
func (t *Transport) onStart(c tele.Context) error {
	return t.dispatch(c, "/start")
}

func (t *Transport) onText(c tele.Context) error {
	return t.dispatch(c, c.Text())
}

func (t *Transport) dispatch(c tele.Context, text string) error {
	sender, chat := c.Sender(), c.Chat()
	if sender == nil || chat == nil {
		return nil
	}
	t.enqueue(bot.Inbound{UserID: sender.ID, ChatID: chat.ID, Text: text})
	return nil
}

// enqueue appends in to its user's mailbox and starts a drainer when the
// mailbox was idle.
func (t *Transport) enqueue(in bot.Inbound) {
	t.mu.Lock()
	defer t.mu.Unlock()
	q, busy := t.mailboxes[in.UserID]
	t.mailboxes[in.UserID] = append(q, in)
	if !busy {
		t.wg.Add(1)
		go t.drain(in.UserID)
	}
}

func (t *Transport) drain(userID int64) {
	defer t.wg.Done()
	for {
		t.mu.Lock()
		q := t.mailboxes[userID]
		if len(q) == 0 {
			delete(t.mailboxes, userID)
			t.mu.Unlock()
			return
		}
		in := q[0]
		t.mailboxes[userID] = q[1:]
		t.mu.Unlock()

		t.handle(in)
	}
}

func (t *Transport) handle(in bot.Inbound) {
	err := t.handler.Handle(t.ctx, in)
	switch {
	case err == nil, errors.Is(err, bot.ErrEmptyInput), errors.Is(err, bot.ErrUnauthorized):
		logging.Get(logging.CategoryTransport).Debug("handled update from %d: %v", in.UserID, err)
	default:
		logging.TransportError("update from %d: %v", in.UserID, err)
	}
}

// Markup converts a bot keyboard to a Telegram reply keyboard. nil and empty
// keyboards yield nil, which leaves the user's keyboard as is.
func Markup(k *bot.Keyboard) *tele.ReplyMarkup {
	if k == nil {
		return nil
	}
	if k.Remove {
		return &tele.ReplyMarkup{RemoveKeyboard: true}
	}

	m := &tele.ReplyMarkup{ResizeKeyboard: true}
	var rows []tele.Row
	for _, labels := range k.Rows {
		var btns []tele.Btn
		for _, l := range labels {
			if strings.TrimSpace(l) == "" {
				continue
			}
			btns = append(btns, m.Text(l))
		}
		if len(btns) > 0 {
			rows = append(rows, m.Row(btns...))
		}
	}
	if len(rows) == 0 {
		return nil
	}
	m.Reply(rows...)
	return m
}
