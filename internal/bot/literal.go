package bot

import (
	"strings"

	"menubot/internal/config"
)

// Literal is the kind of an inbound text: one of the fixed button labels or
// free text.
type Literal uint8

const (
	LitText Literal = iota
	LitStart
	LitBack
	LitAdminPanel
	LitAddTopic
	LitRenameTopic
	LitTopicMessages
	LitDeleteTopic
	LitParentSummary
	LitAddMessage
	LitEditMessage
	LitDeleteMessage
)

var literalNames = [...]string{
	LitText:          "text",
	LitStart:         "start",
	LitBack:          "back",
	LitAdminPanel:    "admin_panel",
	LitAddTopic:      "add_topic",
	LitRenameTopic:   "rename_topic",
	LitTopicMessages: "topic_messages",
	LitDeleteTopic:   "delete_topic",
	LitParentSummary: "parent_summary",
	LitAddMessage:    "add_message",
	LitEditMessage:   "edit_message",
	LitDeleteMessage: "delete_message",
}

func (l Literal) String() string {
	if int(l) < len(literalNames) {
		return literalNames[l]
	}
	return "unknown"
}

// classifier maps button labels to literals.
type classifier map[string]Literal

func newClassifier(t config.Texts) classifier {
	c := make(classifier)
	for name, label := range t.Buttons() {
		for lit, n := range literalNames {
			if n == name && lit != int(LitText) {
				c[strings.TrimSpace(label)] = Literal(lit)
			}
		}
	}
	return c
}

// classify returns the literal for text, which must already be trimmed.
func (c classifier) classify(text string) Literal {
	if lit, ok := c[text]; ok {
		return lit
	}
	return LitText
}
