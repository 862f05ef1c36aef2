package bot

import "menubot/internal/session"

// start clears the session and shows the age menu. The operator also gets
// the admin panel entry.
func (d *Dispatcher) start(ev *event) result {
	return move(session.StateSelectAge, session.Context{},
		Reply{Text: d.texts.ChooseAge, Keyboard: d.ageKeyboard(navFlow, ev.operator)})
}

// navAge ignores anything that is not an age.
func (d *Dispatcher) navAge(ev *event) result {
	if !d.content.HasAge(ev.text) {
		return stay()
	}
	return move(session.StateSelectSeason, session.Context{Age: ev.text},
		Reply{Text: d.texts.ChooseSeason, Keyboard: d.seasonKeyboard(ev.text)})
}

func (d *Dispatcher) navTopic(ev *event) result {
	sc := ev.sc
	rec, ok := d.content.Get(sc.Age, sc.Season, ev.text)
	if !ok {
		if !d.content.HasSeason(sc.Age, sc.Season) {
			return d.lost(ev, navFlow)
		}
		return stay(Reply{Text: d.texts.TopicNotFound})
	}
	sc.Topic = ev.text

	if len(rec.Messages) == 0 {
		return move(session.StateSelectTopic, sc,
			Reply{Text: d.texts.TopicEmpty, Keyboard: &Keyboard{Rows: column(d.texts.Back)}})
	}

	var replies []Reply
	for _, m := range rec.Messages {
		replies = append(replies, d.chunks(m)...)
	}
	replies = append(replies, Reply{
		Text:     d.texts.Done,
		Keyboard: &Keyboard{Rows: column(d.texts.ParentSummary, d.texts.Back)},
	})
	return move(session.StateSelectTopic, sc, replies...)
}

// navSummary sends only the first message of the selected topic.
func (d *Dispatcher) navSummary(ev *event) result {
	sc := ev.sc
	rec, ok := d.content.Get(sc.Age, sc.Season, sc.Topic)
	if !ok || len(rec.Messages) == 0 {
		return stay(Reply{Text: d.texts.NoSummary})
	}
	return stay(d.chunks(rec.Messages[0])...)
}
