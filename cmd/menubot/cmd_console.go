package main

import (
	"context"
	"fmt"

	"menubot/cmd/menubot/chat"
	"menubot/cmd/menubot/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	consoleUserID   int64
	consoleOperator bool
)

// consoleReaderID is the default user for console sessions.
const consoleReaderID int64 = 1

// consoleCmd walks the conversation in the terminal
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Talk to the bot in the terminal",
	Long: `Runs the dispatcher against the configured menu file with a terminal
chat client. Buttons from the bot's reply keyboard are selectable with Tab
and the arrow keys. Edits made as the operator are saved to the menu file.

Examples:
  menubot console
  menubot console --operator`,
	RunE: runConsole,
}

func runConsole(cmd *cobra.Command, args []string) error {
	uid := consoleUserID
	switch {
	case consoleOperator:
		if cfg.Bot.OperatorID == 0 {
			return fmt.Errorf("--operator requires bot.operator_id")
		}
		uid = cfg.Bot.OperatorID
	case uid == 0:
		uid = consoleReaderID
		if uid == cfg.Bot.OperatorID {
			uid++
		}
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	journal, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer journal.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sender := chat.NewSender(0)
	dispatcher, _ := newDispatcher(cfg, st, sender, journal)
	model := chat.NewModel(ctx, dispatcher, sender, chat.Config{
		UserID:   uid,
		Operator: uid == cfg.Bot.OperatorID,
		Styles:   ui.DefaultStyles(),
	})

	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
