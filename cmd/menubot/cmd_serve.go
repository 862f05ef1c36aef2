package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"menubot/internal/logging"
	"menubot/internal/store"
	"menubot/internal/transport/telegram"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// serveCmd runs the Telegram bot
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the bot over Telegram long polling",
	Long: `Starts long polling against the Telegram Bot API. The menu file watcher
and the idle-session sweeper run alongside the poller; SIGINT or SIGTERM
stops all three.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	timer := logging.StartTimer(logging.CategoryBoot, "serve startup")

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	journal, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer journal.Close()

	tg, err := telegram.New(telegram.Settings{
		Token:       cfg.Bot.Token,
		PollTimeout: cfg.GetPollTimeout(),
		ParseMode:   cfg.Bot.ParseMode,
	})
	if err != nil {
		return err
	}
	dispatcher, sessions := newDispatcher(cfg, st, tg, journal)
	tg.Bind(dispatcher)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var watcher *store.Watcher
	if cfg.Store.Watch {
		if watcher, err = store.NewWatcher(st, cfg.GetWatchDebounce()); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return tg.Run(ctx) })
	g.Go(func() error { return sessions.RunSweeper(ctx, cfg.GetSweepInterval()) })
	if watcher != nil {
		g.Go(func() error { return watcher.Run(ctx) })
	}

	timer.Stop()
	logging.Boot("menubot serving %s (operator %d, journal %q)", st.Path(), cfg.Bot.OperatorID, cfg.Store.JournalPath)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logging.BootError("serve stopped: %v", err)
		return err
	}
	logging.Boot("menubot stopped")
	return nil
}
