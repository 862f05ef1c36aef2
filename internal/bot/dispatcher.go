// Package bot is the conversation engine: it classifies inbound text, routes
// it through a static (state, literal) table to a handler, applies the
// handler's transition to the session table and hands the replies to a
// transport.
//
// Routing:
//
//	Inbound → classify → routes[{StateAny, lit}]
//	                   → routes[{state, lit}]
//	                   → routes[{state, LitText}]
//	        → handler → session.Table → Sender
package bot

import (
	"context"
	"html"
	"strings"
	"sync"

	"menubot/internal/chunk"
	"menubot/internal/config"
	"menubot/internal/logging"
	"menubot/internal/session"
	"menubot/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config holds the dispatcher's fixed settings.
type Config struct {
	OperatorID int64
	Texts      config.Texts
	MaxLength  int
	// ParseMode is the transport's parse mode. With "HTML", user-supplied
	// text quoted inside a prompt is escaped.
	ParseMode string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSessions uses tbl instead of a fresh table without TTL.
func WithSessions(tbl *session.Table) Option {
	return func(d *Dispatcher) { d.sessions = tbl }
}

// WithJournal records every successful operator change to j.
func WithJournal(j Journal) Option {
	return func(d *Dispatcher) { d.journal = j }
}

// Dispatcher processes inbound events one at a time. Events from one user
// are also delivered one at a time, so a user's replies never interleave.
type Dispatcher struct {
	mu         sync.Mutex
	locksMu    sync.Mutex
	userLocks  map[int64]*userLock
	content    Content
	sender     Sender
	sessions   *session.Table
	journal    Journal
	operatorID int64
	texts      config.Texts
	maxLen     int
	escapeHTML bool
	classifier classifier
}

// New creates a dispatcher over content that replies through sender.
func New(content Content, sender Sender, cfg Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		content:    content,
		sender:     sender,
		operatorID: cfg.OperatorID,
		texts:      cfg.Texts,
		maxLen:     cfg.MaxLength,
		escapeHTML: cfg.ParseMode == "HTML",
		classifier: newClassifier(cfg.Texts),
		userLocks:  make(map[int64]*userLock),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.sessions == nil {
		d.sessions = session.NewTable()
	}
	if d.maxLen <= 0 {
		d.maxLen = chunk.DefaultMaxLength
	}
	logging.RoutingDebug("dispatcher ready: %d routes, %d button labels", len(routes), len(d.classifier))
	return d
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// lockUser serializes events of one user from processing through delivery.
// The returned func releases the lock.
func (d *Dispatcher) lockUser(id int64) func() {
	d.locksMu.Lock()
	l, ok := d.userLocks[id]
	if !ok {
		l = &userLock{}
		d.userLocks[id] = l
	}
	l.refs++
	d.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		d.locksMu.Lock()
		if l.refs--; l.refs == 0 {
			delete(d.userLocks, id)
		}
		d.locksMu.Unlock()
	}
}

// Sessions returns the session table.
func (d *Dispatcher) Sessions() *session.Table {
	return d.sessions
}

// event is what a handler sees.
type event struct {
	ctx      context.Context
	in       Inbound
	text     string
	lit      Literal
	state    session.State
	sc       session.Context
	operator bool
	log      *logging.Logger
}

// result is what a handler asks the dispatcher to do.
type result struct {
	replies []Reply
	keep    bool
	next    session.State
	sc      session.Context
	err     error
}

// stay leaves state and context untouched.
func stay(replies ...Reply) result {
	return result{replies: replies, keep: true}
}

// move stores next and sc.
func move(next session.State, sc session.Context, replies ...Reply) result {
	return result{replies: replies, next: next, sc: sc}
}

func (r result) withErr(err error) result {
	r.err = err
	return r
}

type handlerFunc func(d *Dispatcher, ev *event) result

type route struct {
	state session.State
	lit   Literal
}

// Handle processes one inbound event to completion and delivers its
// replies. The returned error is ErrUnauthorized, ErrEmptyInput, a store
// error the user was told about, or a delivery error.
func (d *Dispatcher) Handle(ctx context.Context, in Inbound) error {
	reqID := uuid.NewString()
	log := logging.WithRequestID(logging.CategoryRouting, reqID).With(zap.Int64("user", in.UserID))

	unlock := d.lockUser(in.UserID)
	defer unlock()

	d.mu.Lock()
	res, handled := d.process(ctx, in, log)
	d.mu.Unlock()

	if !handled {
		return nil
	}
	for _, r := range res.replies {
		if err := d.sender.Send(ctx, in.ChatID, r); err != nil {
			log.Error("delivery failed: %v", err)
			return err
		}
	}
	return res.err
}

func (d *Dispatcher) process(ctx context.Context, in Inbound, log *logging.Logger) (result, bool) {
	timer := logging.StartTimer(logging.CategoryRouting, "dispatch")
	defer timer.Stop()

	text := strings.TrimSpace(in.Text)
	state, sc := d.sessions.Get(in.UserID)
	ev := &event{
		ctx:      ctx,
		in:       in,
		text:     text,
		lit:      d.classifier.classify(text),
		state:    state,
		sc:       sc,
		operator: in.UserID == d.operatorID,
		log:      log,
	}

	h := lookup(state, ev.lit)
	if h == nil {
		log.Debug("no route for %s/%s, ignoring", state, ev.lit)
		d.sessions.Touch(in.UserID)
		return result{}, false
	}

	res := h(d, ev)
	if res.keep {
		d.sessions.Touch(in.UserID)
		log.Debug("%s/%s handled, state kept", state, ev.lit)
	} else {
		d.sessions.Set(in.UserID, res.next, res.sc)
		log.Debug("%s/%s handled, %s -> %s", state, ev.lit, state, res.next)
	}
	return res, true
}

// lookup resolves the handler for a state and literal. Global literals win;
// a label with no route in the current state is treated as free text.
func lookup(state session.State, lit Literal) handlerFunc {
	if lit != LitText {
		if h, ok := routes[route{session.StateAny, lit}]; ok {
			return h
		}
		if h, ok := routes[route{state, lit}]; ok {
			return h
		}
	}
	return routes[route{state, LitText}]
}

// quote prepares user-supplied text for a prompt template.
func (d *Dispatcher) quote(s string) string {
	if d.escapeHTML {
		return html.EscapeString(s)
	}
	return s
}

// chunks splits text for delivery.
func (d *Dispatcher) chunks(text string) []Reply {
	parts := chunk.Split(text, d.maxLen)
	out := make([]Reply, 0, len(parts))
	for _, p := range parts {
		out = append(out, Reply{Text: p})
	}
	return out
}

// record appends a change to the journal. Journal failures do not fail the
// conversation.
func (d *Dispatcher) record(ev *event, c store.Change) {
	if d.journal == nil {
		return
	}
	c.Actor = ev.in.UserID
	if err := d.journal.Record(ev.ctx, c); err != nil {
		logging.Get(logging.CategoryJournal).Warn("failed to record %s: %v", c.Op, err)
	}
}
