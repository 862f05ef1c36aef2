package main

import (
	"fmt"

	"menubot/internal/bot"
	"menubot/internal/config"
	"menubot/internal/session"
	"menubot/internal/store"
)

func openStore(c *config.Config) (*store.Store, error) {
	st, err := store.Open(c.Store.MenuFile, store.WithAtomicWrite(c.Store.AtomicWrite))
	if err != nil {
		return nil, fmt.Errorf("failed to open menu: %w", err)
	}
	return st, nil
}

// openJournal returns nil when the journal is disabled.
func openJournal(c *config.Config) (*store.Journal, error) {
	if c.Store.JournalPath == "" {
		return nil, nil
	}
	j, err := store.OpenJournal(c.Store.JournalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return j, nil
}

// newDispatcher wires the dispatcher with a TTL session table. j may be nil.
func newDispatcher(c *config.Config, st *store.Store, sender bot.Sender, j *store.Journal) (*bot.Dispatcher, *session.Table) {
	sessions := session.NewTable(session.WithTTL(c.GetSessionTTL()))
	opts := []bot.Option{bot.WithSessions(sessions)}
	if j != nil {
		opts = append(opts, bot.WithJournal(j))
	}
	d := bot.New(st, sender, bot.Config{
		OperatorID: c.Bot.OperatorID,
		Texts:      c.Texts,
		MaxLength:  c.Chunker.MaxLength,
		ParseMode:  c.Bot.ParseMode,
	}, opts...)
	return d, sessions
}
