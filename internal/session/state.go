// Package session holds per-user conversation state: which step of a menu
// flow the user is in and the selections made so far.
//
// The Table is owned by the bot dispatcher, which is its only writer during
// event handling. The sweeper goroutine only removes idle entries.
package session

// State is a step of a conversation.
type State uint8

const (
	// StateNone means the user has no active flow; only global commands
	// are answered.
	StateNone State = iota

	// Navigation
	StateSelectAge
	StateSelectSeason
	StateSelectTopic

	// Admin topic lifecycle
	StateAdminPanel
	StateAdminAge
	StateAdminSeason
	StateAdminTopic
	StateAdminContent

	// Rename
	StateRenameAge
	StateRenameSeason
	StateRenameTopic
	StateRenameNewTitle

	// Message CRUD
	StateMsgAge
	StateMsgSeason
	StateMsgTopic
	StateMsgMode
	StateMsgListWait
	StateMsgContent

	// StateAny is never stored; routes registered under it apply in every
	// state and take priority.
	StateAny State = 255
)

var stateNames = map[State]string{
	StateNone:           "none",
	StateSelectAge:      "select_age",
	StateSelectSeason:   "select_season",
	StateSelectTopic:    "select_topic",
	StateAdminPanel:     "admin_panel",
	StateAdminAge:       "admin_age",
	StateAdminSeason:    "admin_season",
	StateAdminTopic:     "admin_topic",
	StateAdminContent:   "admin_content",
	StateRenameAge:      "rename_age",
	StateRenameSeason:   "rename_season",
	StateRenameTopic:    "rename_topic",
	StateRenameNewTitle: "rename_new_title",
	StateMsgAge:         "msg_age",
	StateMsgSeason:      "msg_season",
	StateMsgTopic:       "msg_topic",
	StateMsgMode:        "msg_mode",
	StateMsgListWait:    "msg_list_wait",
	StateMsgContent:     "msg_content",
	StateAny:            "any",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Action is the pending topic operation of the admin lifecycle flow.
type Action string

const (
	ActionNone   Action = ""
	ActionAdd    Action = "add"
	ActionDelete Action = "delete"
)

// Op is the pending per-message operation of the message flow.
type Op string

const (
	OpNone   Op = ""
	OpEdit   Op = "edit"
	OpDelete Op = "delete"
)

// Context is the data a flow accumulates. Fields are overwritten one at a
// time as the user advances; the zero value is the cleared context.
type Context struct {
	Age      string
	Season   string
	Topic    string
	Action   Action
	Op       Op
	OldTopic string
	Index    *int
}

// WithIndex returns a copy of c with Index set to i.
func (c Context) WithIndex(i int) Context {
	c.Index = &i
	return c
}

// HasIndex reports whether a message index is selected.
func (c Context) HasIndex() bool {
	return c.Index != nil
}
