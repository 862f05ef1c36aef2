package bot

import (
	"fmt"
	"strconv"

	"menubot/internal/session"
	"menubot/internal/store"
)

// editPreviewLength bounds the current text shown before an edit.
const editPreviewLength = 900

func (d *Dispatcher) modeMenu(sc session.Context, text string) result {
	sc.Op, sc.Index = session.OpNone, nil
	return move(session.StateMsgMode, sc, Reply{Text: text, Keyboard: d.modeKeyboard()})
}

func (d *Dispatcher) msgPickTopic(ev *event) result {
	sc := ev.sc
	if _, ok := d.content.Get(sc.Age, sc.Season, ev.text); !ok {
		if !d.content.HasSeason(sc.Age, sc.Season) {
			return d.lost(ev, msgFlow)
		}
		return stay(Reply{Text: d.texts.TopicNotFound})
	}
	sc.Topic = ev.text
	return d.modeMenu(sc, d.texts.ChooseAction)
}

func (d *Dispatcher) msgAdd(ev *event) result {
	sc := ev.sc
	if _, ok := d.content.Get(sc.Age, sc.Season, sc.Topic); !ok {
		return d.lost(ev, msgFlow)
	}
	sc.Op, sc.Index = session.OpNone, nil
	return move(session.StateMsgContent, sc, Reply{Text: d.texts.EnterNewMessage, Keyboard: RemoveKeyboard()})
}

// msgChooseIndex offers the numbered message list for an edit or delete.
func msgChooseIndex(op session.Op) handlerFunc {
	return func(d *Dispatcher, ev *event) result {
		sc := ev.sc
		rec, ok := d.content.Get(sc.Age, sc.Season, sc.Topic)
		if !ok {
			return d.lost(ev, msgFlow)
		}
		if len(rec.Messages) == 0 {
			return stay(Reply{Text: d.texts.NoMessagesYet, Keyboard: d.modeKeyboard()})
		}
		sc.Op, sc.Index = op, nil
		return move(session.StateMsgListWait, sc,
			Reply{Text: d.texts.ChooseNumber, Keyboard: d.indexKeyboard(len(rec.Messages))})
	}
}

func (d *Dispatcher) msgUnknown(ev *event) result {
	return stay(Reply{Text: d.texts.UnknownAction})
}

// backToMode returns from the number list or the content prompt.
func (d *Dispatcher) backToMode(ev *event) result {
	if _, ok := d.content.Get(ev.sc.Age, ev.sc.Season, ev.sc.Topic); !ok {
		return d.lost(ev, msgFlow)
	}
	return d.modeMenu(ev.sc, d.texts.ChooseAction)
}

// msgPickIndex takes a 1-based message number.
func (d *Dispatcher) msgPickIndex(ev *event) result {
	sc := ev.sc
	if !isDigits(ev.text) {
		return stay(Reply{Text: d.texts.EnterNumber})
	}
	rec, ok := d.content.Get(sc.Age, sc.Season, sc.Topic)
	if !ok {
		return d.lost(ev, msgFlow)
	}
	n, err := strconv.Atoi(ev.text)
	idx := n - 1
	if err != nil || idx < 0 || idx >= len(rec.Messages) {
		return stay(Reply{Text: d.texts.InvalidNumber})
	}

	switch sc.Op {
	case session.OpEdit:
		sc = sc.WithIndex(idx)
		text := fmt.Sprintf(d.texts.EnterEditFmt, d.quote(preview(rec.Messages[idx], editPreviewLength)))
		return move(session.StateMsgContent, sc, Reply{Text: text, Keyboard: RemoveKeyboard()})

	case session.OpDelete:
		if err := d.content.DeleteMessage(sc.Age, sc.Season, sc.Topic, idx); err != nil {
			return d.mutationFailed(ev, msgFlow, err)
		}
		ev.log.Info("message %d deleted from %q", n, sc.Topic)
		d.record(ev, store.Change{Op: "delete_message", Age: sc.Age, Season: sc.Season, Topic: sc.Topic, Index: &idx,
			Detail: preview(rec.Messages[idx], 80)})
		return d.modeMenu(sc, d.texts.MessageDeleted)

	default:
		return d.modeMenu(sc, d.texts.ChooseAction)
	}
}

// msgContent appends a new message or replaces the selected one.
func (d *Dispatcher) msgContent(ev *event) result {
	sc := ev.sc
	if ev.text == "" {
		return stay(Reply{Text: d.texts.EmptyMessage}).withErr(ErrEmptyInput)
	}

	change := store.Change{Age: sc.Age, Season: sc.Season, Topic: sc.Topic, Detail: preview(ev.text, 80)}
	var (
		err  error
		done string
	)
	if sc.HasIndex() {
		idx := *sc.Index
		err = d.content.ReplaceMessage(sc.Age, sc.Season, sc.Topic, idx, ev.text)
		change.Op, change.Index = "replace_message", &idx
		done = d.texts.MessageUpdated
	} else {
		err = d.content.AppendMessage(sc.Age, sc.Season, sc.Topic, ev.text)
		change.Op = "append_message"
		done = d.texts.MessageAdded
	}
	if err != nil {
		return d.mutationFailed(ev, msgFlow, err)
	}

	ev.log.Info("%s on %q", change.Op, sc.Topic)
	d.record(ev, change)
	return d.modeMenu(sc, done)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
