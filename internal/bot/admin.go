package bot

import (
	"errors"
	"fmt"

	"menubot/internal/session"
	"menubot/internal/store"
)

func (d *Dispatcher) adminPanel(ev *event) result {
	return d.toPanel(d.texts.AdminPanelTitle)
}

// toPanel ends an operator flow on the admin panel with a cleared context.
func (d *Dispatcher) toPanel(text string) result {
	return move(session.StateAdminPanel, session.Context{}, Reply{Text: text, Keyboard: d.adminKeyboard()})
}

func topicEntry(action session.Action) handlerFunc {
	return func(d *Dispatcher, ev *event) result {
		return move(topicFlow.age, session.Context{Action: action},
			Reply{Text: d.texts.ChooseAge, Keyboard: d.ageKeyboard(topicFlow, true)})
	}
}

func (d *Dispatcher) renameEntry(ev *event) result {
	return move(renameFlow.age, session.Context{},
		Reply{Text: d.texts.ChooseAge, Keyboard: d.ageKeyboard(renameFlow, true)})
}

func (d *Dispatcher) msgEntry(ev *event) result {
	return move(msgFlow.age, session.Context{},
		Reply{Text: d.texts.ChooseAge, Keyboard: d.ageKeyboard(msgFlow, true)})
}

// =============================================================================
// TOPIC LIFECYCLE
// =============================================================================

// adminTopic deletes the chosen topic or asks for the text of a new one.
func (d *Dispatcher) adminTopic(ev *event) result {
	sc := ev.sc
	switch sc.Action {
	case session.ActionDelete:
		err := d.content.DeleteTopic(sc.Age, sc.Season, ev.text)
		switch {
		case err == nil:
			ev.log.Info("topic %q deleted from %s/%s", ev.text, sc.Age, sc.Season)
			d.record(ev, store.Change{Op: "delete_topic", Age: sc.Age, Season: sc.Season, Topic: ev.text})
			return d.toPanel(d.texts.TopicDeleted)
		case errors.Is(err, store.ErrNotFound):
			return d.toPanel(d.texts.TopicNotFound)
		default:
			ev.log.Error("save failed: %v", err)
			return stay(Reply{Text: d.texts.SaveFailed}).withErr(err)
		}

	case session.ActionAdd:
		if !d.content.HasSeason(sc.Age, sc.Season) {
			return d.lost(ev, topicFlow)
		}
		if ev.text == "" {
			return stay(Reply{Text: d.texts.EmptyTitle}).withErr(ErrEmptyInput)
		}
		sc.Topic = ev.text
		return move(session.StateAdminContent, sc, Reply{Text: d.texts.EnterTopicText, Keyboard: RemoveKeyboard()})

	default:
		return d.adminPanel(ev)
	}
}

// adminContent stores the text as the topic's first message.
func (d *Dispatcher) adminContent(ev *event) result {
	sc := ev.sc
	if ev.text == "" {
		return stay(Reply{Text: d.texts.EmptyText}).withErr(ErrEmptyInput)
	}
	if err := d.content.PutTopic(sc.Age, sc.Season, sc.Topic, ev.text); err != nil {
		return d.mutationFailed(ev, topicFlow, err)
	}
	ev.log.Info("topic %q saved under %s/%s", sc.Topic, sc.Age, sc.Season)
	d.record(ev, store.Change{Op: "put_topic", Age: sc.Age, Season: sc.Season, Topic: sc.Topic, Detail: preview(ev.text, 80)})
	return d.toPanel(d.texts.TopicSaved)
}

// =============================================================================
// RENAME
// =============================================================================

func (d *Dispatcher) renamePick(ev *event) result {
	sc := ev.sc
	if _, ok := d.content.Get(sc.Age, sc.Season, ev.text); !ok {
		if !d.content.HasSeason(sc.Age, sc.Season) {
			return d.lost(ev, renameFlow)
		}
		return stay(Reply{Text: d.texts.TopicNotFound})
	}
	sc.OldTopic = ev.text
	return move(session.StateRenameNewTitle, sc,
		Reply{Text: fmt.Sprintf(d.texts.EnterNewTitleFmt, d.quote(ev.text)), Keyboard: RemoveKeyboard()})
}

func (d *Dispatcher) renameApply(ev *event) result {
	sc := ev.sc
	if ev.text == "" {
		return stay(Reply{Text: d.texts.EmptyTitle}).withErr(ErrEmptyInput)
	}
	err := d.content.RenameTopic(sc.Age, sc.Season, sc.OldTopic, ev.text)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrConflict):
		return stay(Reply{Text: d.texts.TitleTaken})
	default:
		return d.mutationFailed(ev, renameFlow, err)
	}

	ev.log.Info("topic %q renamed to %q in %s/%s", sc.OldTopic, ev.text, sc.Age, sc.Season)
	d.record(ev, store.Change{Op: "rename_topic", Age: sc.Age, Season: sc.Season, Topic: sc.OldTopic, NewTitle: ev.text})
	return d.toPanel(fmt.Sprintf(d.texts.RenamedFmt, d.quote(ev.text)))
}

// preview shortens s to limit code points, marking the cut with an ellipsis.
func preview(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}
