package bot

import (
	"errors"
	"strconv"

	"menubot/internal/session"
	"menubot/internal/store"
)

// column puts each label on its own row.
func column(labels ...string) [][]string {
	rows := make([][]string, 0, len(labels))
	for _, l := range labels {
		rows = append(rows, []string{l})
	}
	return rows
}

func (d *Dispatcher) ageKeyboard(f flow, operator bool) *Keyboard {
	rows := column(d.content.Ages()...)
	if f.admin {
		rows = append(rows, []string{d.texts.Back})
	} else if operator {
		rows = append(rows, []string{d.texts.AdminPanel})
	}
	return &Keyboard{Rows: rows}
}

func (d *Dispatcher) seasonKeyboard(age string) *Keyboard {
	return &Keyboard{Rows: append(column(d.content.Seasons(age)...), []string{d.texts.Back})}
}

func (d *Dispatcher) topicKeyboard(age, season string) *Keyboard {
	return &Keyboard{Rows: append(column(d.content.Topics(age, season)...), []string{d.texts.Back})}
}

func (d *Dispatcher) adminKeyboard() *Keyboard {
	t := d.texts
	return &Keyboard{Rows: [][]string{
		{t.AddTopic, t.RenameTopic},
		{t.TopicMessages},
		{t.DeleteTopic, t.Back},
	}}
}

func (d *Dispatcher) modeKeyboard() *Keyboard {
	t := d.texts
	return &Keyboard{Rows: column(t.AddMessage, t.EditMessage, t.DeleteMessage, t.Back)}
}

// indexKeyboard numbers n messages from 1, three to a row.
func (d *Dispatcher) indexKeyboard(n int) *Keyboard {
	var rows [][]string
	for i := 1; i <= n; i++ {
		if (i-1)%3 == 0 {
			rows = append(rows, nil)
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], strconv.Itoa(i))
	}
	return &Keyboard{Rows: append(rows, []string{d.texts.Back})}
}

func (d *Dispatcher) topicPrompt(f flow) string {
	if f == renameFlow {
		return d.texts.ChooseRenameTopic
	}
	return d.texts.ChooseTopic
}

// =============================================================================
// SHARED DRILL-DOWN STEPS
// =============================================================================

// ageStep handles an age choice in an operator flow.
func ageStep(f flow) handlerFunc {
	return func(d *Dispatcher, ev *event) result {
		if !d.content.HasAge(ev.text) {
			return stay(Reply{Text: d.texts.InvalidAge})
		}
		sc := session.Context{Action: ev.sc.Action, Age: ev.text}
		return move(f.season, sc, Reply{Text: d.texts.ChooseSeason, Keyboard: d.seasonKeyboard(ev.text)})
	}
}

// seasonStep handles a season choice in any flow.
func seasonStep(f flow) handlerFunc {
	return func(d *Dispatcher, ev *event) result {
		sc := ev.sc
		if !d.content.HasAge(sc.Age) {
			return d.lost(ev, f)
		}
		if !d.content.HasSeason(sc.Age, ev.text) {
			return stay(Reply{Text: d.texts.InvalidSeason})
		}
		sc.Season = ev.text
		return move(f.topic, sc, Reply{Text: d.topicPrompt(f), Keyboard: d.topicKeyboard(sc.Age, sc.Season)})
	}
}

// backToAges re-renders the age list of an operator flow.
func backToAges(f flow) handlerFunc {
	return func(d *Dispatcher, ev *event) result {
		sc := session.Context{Action: ev.sc.Action}
		return move(f.age, sc, Reply{Text: d.texts.ChooseAge, Keyboard: d.ageKeyboard(f, ev.operator)})
	}
}

// backToSeasons re-renders the season list of the selected age.
func backToSeasons(f flow) handlerFunc {
	return func(d *Dispatcher, ev *event) result {
		if !d.content.HasAge(ev.sc.Age) {
			return d.lost(ev, f)
		}
		sc := session.Context{Action: ev.sc.Action, Age: ev.sc.Age}
		return move(f.season, sc, Reply{Text: d.texts.ChooseSeason, Keyboard: d.seasonKeyboard(sc.Age)})
	}
}

// backToTopics re-renders the topic list of the selected season.
func backToTopics(f flow) handlerFunc {
	return func(d *Dispatcher, ev *event) result {
		if !d.content.HasSeason(ev.sc.Age, ev.sc.Season) {
			return d.lost(ev, f)
		}
		sc := session.Context{Action: ev.sc.Action, Age: ev.sc.Age, Season: ev.sc.Season}
		return move(f.topic, sc, Reply{Text: d.topicPrompt(f), Keyboard: d.topicKeyboard(sc.Age, sc.Season)})
	}
}

// lost moves the user to the nearest menu of f that still exists after
// another session changed the tree, with one notice naming what vanished.
func (d *Dispatcher) lost(ev *event, f flow) result {
	sc := ev.sc
	ev.log.Info("selection %q/%q/%q no longer exists, reverting %s flow", sc.Age, sc.Season, sc.Topic, f.name)

	switch {
	case !d.content.HasAge(sc.Age):
		return move(f.age, session.Context{Action: sc.Action},
			Reply{Text: d.texts.InvalidAge, Keyboard: d.ageKeyboard(f, ev.operator)})
	case !d.content.HasSeason(sc.Age, sc.Season):
		return move(f.season, session.Context{Action: sc.Action, Age: sc.Age},
			Reply{Text: d.texts.InvalidSeason, Keyboard: d.seasonKeyboard(sc.Age)})
	default:
		return move(f.topic, session.Context{Action: sc.Action, Age: sc.Age, Season: sc.Season},
			Reply{Text: d.texts.TopicNotFound, Keyboard: d.topicKeyboard(sc.Age, sc.Season)})
	}
}

// mutationFailed turns a store error into the user-facing outcome.
func (d *Dispatcher) mutationFailed(ev *event, f flow, err error) result {
	var nf *store.NotFoundError
	switch {
	case errors.As(err, &nf) && nf.Level == store.LevelMessage:
		sc := ev.sc
		sc.Op, sc.Index = session.OpNone, nil
		return move(session.StateMsgMode, sc, Reply{Text: d.texts.InvalidNumber, Keyboard: d.modeKeyboard()})
	case errors.Is(err, store.ErrNotFound):
		return d.lost(ev, f)
	default:
		ev.log.Error("save failed: %v", err)
		return stay(Reply{Text: d.texts.SaveFailed}).withErr(err)
	}
}
