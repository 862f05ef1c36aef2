package config

import "reflect"

// Texts holds every button label and prompt the bot shows. Labels double as
// the literals the router matches, so two labels must never be equal.
// Fields ending in "Fmt" take one %s argument.
type Texts struct {
	// Buttons
	Start         string `yaml:"start"`
	Back          string `yaml:"back"`
	AdminPanel    string `yaml:"admin_panel"`
	AddTopic      string `yaml:"add_topic"`
	RenameTopic   string `yaml:"rename_topic"`
	TopicMessages string `yaml:"topic_messages"`
	DeleteTopic   string `yaml:"delete_topic"`
	ParentSummary string `yaml:"parent_summary"`
	AddMessage    string `yaml:"add_message"`
	EditMessage   string `yaml:"edit_message"`
	DeleteMessage string `yaml:"delete_message"`

	// Navigation
	ChooseAge     string `yaml:"choose_age"`
	ChooseSeason  string `yaml:"choose_season"`
	ChooseTopic   string `yaml:"choose_topic"`
	InvalidAge    string `yaml:"invalid_age"`
	InvalidSeason string `yaml:"invalid_season"`
	TopicNotFound string `yaml:"topic_not_found"`
	NoSummary     string `yaml:"no_summary"`
	TopicEmpty    string `yaml:"topic_empty"`
	Done          string `yaml:"done"`

	// Admin
	NotAdmin          string `yaml:"not_admin"`
	AdminPanelTitle   string `yaml:"admin_panel_title"`
	TopicDeleted      string `yaml:"topic_deleted"`
	EnterTopicText    string `yaml:"enter_topic_text"`
	EmptyText         string `yaml:"empty_text"`
	TopicSaved        string `yaml:"topic_saved"`
	ChooseRenameTopic string `yaml:"choose_rename_topic"`
	EnterNewTitleFmt  string `yaml:"enter_new_title_fmt"`
	EmptyTitle        string `yaml:"empty_title"`
	TitleTaken        string `yaml:"title_taken"`
	RenamedFmt        string `yaml:"renamed_fmt"`
	ChooseAction      string `yaml:"choose_action"`
	NoMessagesYet     string `yaml:"no_messages_yet"`
	ChooseNumber      string `yaml:"choose_number"`
	UnknownAction     string `yaml:"unknown_action"`
	EnterNumber       string `yaml:"enter_number"`
	InvalidNumber     string `yaml:"invalid_number"`
	EnterNewMessage   string `yaml:"enter_new_message"`
	EnterEditFmt      string `yaml:"enter_edit_fmt"`
	MessageDeleted    string `yaml:"message_deleted"`
	MessageAdded      string `yaml:"message_added"`
	MessageUpdated    string `yaml:"message_updated"`
	EmptyMessage      string `yaml:"empty_message"`
	SaveFailed        string `yaml:"save_failed"`
}

// DefaultTexts returns the English texts.
func DefaultTexts() Texts {
	return Texts{
		Start:         "/start",
		Back:          "⬅ Back",
		AdminPanel:    "🛠 Admin panel",
		AddTopic:      "➕ Add topic",
		RenameTopic:   "✏️ Rename topic",
		TopicMessages: "🧩 Topic messages (add/edit/delete)",
		DeleteTopic:   "❌ Delete topic",
		ParentSummary: "📩 Text for parents",
		AddMessage:    "➕ Add message",
		EditMessage:   "✏️ Edit message",
		DeleteMessage: "🗑 Delete message",

		ChooseAge:     "Choose an age category:",
		ChooseSeason:  "Choose a season:",
		ChooseTopic:   "Choose a topic:",
		InvalidAge:    "Invalid category",
		InvalidSeason: "Invalid season",
		TopicNotFound: "⛔ Topic not found.",
		NoSummary:     "⚠️ There are no messages in this topic.",
		TopicEmpty:    "🔸 This topic has no messages yet.",
		Done:          "Done ✅",

		NotAdmin:          "⛔ You are not an admin.",
		AdminPanelTitle:   "Admin panel:",
		TopicDeleted:      "✅ Topic deleted.",
		EnterTopicText:    "Enter the topic text (it will be saved as the first message):",
		EmptyText:         "⚠️ Text must not be empty.",
		TopicSaved:        "✅ Topic saved.",
		ChooseRenameTopic: "Choose a topic to rename:",
		EnterNewTitleFmt:  "Current title: «%s»\n\nEnter the NEW topic title:",
		EmptyTitle:        "The title must not be empty. Enter another one:",
		TitleTaken:        "A topic with this title already exists. Enter another one:",
		RenamedFmt:        "✅ Title changed to: «%s»",
		ChooseAction:      "Choose an action:",
		NoMessagesYet:     "This topic has no messages yet.",
		ChooseNumber:      "Choose the message number:",
		UnknownAction:     "Command not recognized. Choose an action from the keyboard.",
		EnterNumber:       "Enter a number from the keyboard.",
		InvalidNumber:     "Invalid number.",
		EnterNewMessage:   "Send the text of the NEW message (it can be long):",
		EnterEditFmt:      "Send the NEW text for this message (the old one will be replaced entirely):\n\n%s",
		MessageDeleted:    "✅ Message deleted.",
		MessageAdded:      "✅ Message added.",
		MessageUpdated:    "✅ Message updated.",
		EmptyMessage:      "⚠️ Text must not be empty. Try again:",
		SaveFailed:        "⚠️ Could not save the change. Please try again.",
	}
}

// withDefaults fills every empty field of t from d.
func (t Texts) withDefaults(d Texts) Texts {
	tv := reflect.ValueOf(&t).Elem()
	dv := reflect.ValueOf(d)
	for i := 0; i < tv.NumField(); i++ {
		if f := tv.Field(i); f.Kind() == reflect.String && f.String() == "" {
			f.SetString(dv.Field(i).String())
		}
	}
	return t
}

// Buttons returns the labels the router treats as literals, keyed by YAML name.
func (t Texts) Buttons() map[string]string {
	return map[string]string{
		"start":          t.Start,
		"back":           t.Back,
		"admin_panel":    t.AdminPanel,
		"add_topic":      t.AddTopic,
		"rename_topic":   t.RenameTopic,
		"topic_messages": t.TopicMessages,
		"delete_topic":   t.DeleteTopic,
		"parent_summary": t.ParentSummary,
		"add_message":    t.AddMessage,
		"edit_message":   t.EditMessage,
		"delete_message": t.DeleteMessage,
	}
}
