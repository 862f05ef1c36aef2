package bot

import "menubot/internal/session"

// flow is one age → season → topic drill-down. The reader flow and the three
// operator flows share the same steps and differ in what happens once a
// topic is chosen.
type flow struct {
	name   string
	age    session.State
	season session.State
	topic  session.State
	admin  bool
}

var (
	navFlow    = flow{name: "nav", age: session.StateSelectAge, season: session.StateSelectSeason, topic: session.StateSelectTopic}
	topicFlow  = flow{name: "topic", age: session.StateAdminAge, season: session.StateAdminSeason, topic: session.StateAdminTopic, admin: true}
	renameFlow = flow{name: "rename", age: session.StateRenameAge, season: session.StateRenameSeason, topic: session.StateRenameTopic, admin: true}
	msgFlow    = flow{name: "msg", age: session.StateMsgAge, season: session.StateMsgSeason, topic: session.StateMsgTopic, admin: true}
)

// routes is the static dispatch table. Entries under StateAny apply in every
// state; LitText entries receive free text and labels the state does not
// route itself.
var routes map[route]handlerFunc

func init() {
	routes = map[route]handlerFunc{
		// Global commands
		{session.StateAny, LitStart}:         (*Dispatcher).start,
		{session.StateAny, LitAdminPanel}:    operatorOnly((*Dispatcher).adminPanel),
		{session.StateAny, LitAddTopic}:      operatorOnly(topicEntry(session.ActionAdd)),
		{session.StateAny, LitDeleteTopic}:   operatorOnly(topicEntry(session.ActionDelete)),
		{session.StateAny, LitRenameTopic}:   operatorOnly((*Dispatcher).renameEntry),
		{session.StateAny, LitTopicMessages}: operatorOnly((*Dispatcher).msgEntry),

		// Reader navigation
		{session.StateSelectAge, LitText}:            (*Dispatcher).navAge,
		{session.StateSelectSeason, LitBack}:         (*Dispatcher).start,
		{session.StateSelectSeason, LitText}:         seasonStep(navFlow),
		{session.StateSelectTopic, LitBack}:          backToSeasons(navFlow),
		{session.StateSelectTopic, LitParentSummary}: (*Dispatcher).navSummary,
		{session.StateSelectTopic, LitText}:          (*Dispatcher).navTopic,

		// Admin panel
		{session.StateAdminPanel, LitBack}: (*Dispatcher).start,

		// Topic lifecycle
		{session.StateAdminAge, LitBack}:     operatorOnly((*Dispatcher).adminPanel),
		{session.StateAdminAge, LitText}:     operatorOnly(ageStep(topicFlow)),
		{session.StateAdminSeason, LitBack}:  operatorOnly(backToAges(topicFlow)),
		{session.StateAdminSeason, LitText}:  operatorOnly(seasonStep(topicFlow)),
		{session.StateAdminTopic, LitBack}:   operatorOnly(backToSeasons(topicFlow)),
		{session.StateAdminTopic, LitText}:   operatorOnly((*Dispatcher).adminTopic),
		{session.StateAdminContent, LitBack}: operatorOnly(backToTopics(topicFlow)),
		{session.StateAdminContent, LitText}: operatorOnly((*Dispatcher).adminContent),

		// Rename
		{session.StateRenameAge, LitBack}:      operatorOnly((*Dispatcher).adminPanel),
		{session.StateRenameAge, LitText}:      operatorOnly(ageStep(renameFlow)),
		{session.StateRenameSeason, LitBack}:   operatorOnly(backToAges(renameFlow)),
		{session.StateRenameSeason, LitText}:   operatorOnly(seasonStep(renameFlow)),
		{session.StateRenameTopic, LitBack}:    operatorOnly(backToSeasons(renameFlow)),
		{session.StateRenameTopic, LitText}:    operatorOnly((*Dispatcher).renamePick),
		{session.StateRenameNewTitle, LitBack}: operatorOnly(backToTopics(renameFlow)),
		{session.StateRenameNewTitle, LitText}: operatorOnly((*Dispatcher).renameApply),

		// Message CRUD
		{session.StateMsgAge, LitBack}:           operatorOnly((*Dispatcher).adminPanel),
		{session.StateMsgAge, LitText}:           operatorOnly(ageStep(msgFlow)),
		{session.StateMsgSeason, LitBack}:        operatorOnly(backToAges(msgFlow)),
		{session.StateMsgSeason, LitText}:        operatorOnly(seasonStep(msgFlow)),
		{session.StateMsgTopic, LitBack}:         operatorOnly(backToSeasons(msgFlow)),
		{session.StateMsgTopic, LitText}:         operatorOnly((*Dispatcher).msgPickTopic),
		{session.StateMsgMode, LitBack}:          operatorOnly(backToTopics(msgFlow)),
		{session.StateMsgMode, LitAddMessage}:    operatorOnly((*Dispatcher).msgAdd),
		{session.StateMsgMode, LitEditMessage}:   operatorOnly(msgChooseIndex(session.OpEdit)),
		{session.StateMsgMode, LitDeleteMessage}: operatorOnly(msgChooseIndex(session.OpDelete)),
		{session.StateMsgMode, LitText}:          operatorOnly((*Dispatcher).msgUnknown),
		{session.StateMsgListWait, LitBack}:      operatorOnly((*Dispatcher).backToMode),
		{session.StateMsgListWait, LitText}:      operatorOnly((*Dispatcher).msgPickIndex),
		{session.StateMsgContent, LitBack}:       operatorOnly((*Dispatcher).backToMode),
		{session.StateMsgContent, LitText}:       operatorOnly((*Dispatcher).msgContent),
	}
}

// operatorOnly rejects everyone but the operator without touching state.
func operatorOnly(h handlerFunc) handlerFunc {
	return func(d *Dispatcher, ev *event) result {
		if !ev.operator {
			ev.log.Info("rejected %s from non-operator", ev.lit)
			return stay(Reply{Text: d.texts.NotAdmin}).withErr(ErrUnauthorized)
		}
		return h(d, ev)
	}
}
