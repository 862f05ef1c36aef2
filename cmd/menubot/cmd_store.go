package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"menubot/internal/store"

	"github.com/spf13/cobra"
)

var historyLimit int

// checkCmd validates the menu file
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the menu file and report its size",
	Long: `Loads and migrates the menu file in memory without writing it. Exits
non-zero when the file is not a valid menu document.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.Store.MenuFile)
		if err != nil {
			var corrupt *store.CorruptStoreError
			if errors.As(err, &corrupt) {
				return fmt.Errorf("%s is corrupt: %w", corrupt.Path, corrupt.Err)
			}
			return err
		}
		s := st.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d ages, %d seasons, %d topics, %d messages)\n",
			st.Path(), s.Ages, s.Seasons, s.Topics, s.Messages)
		return nil
	},
}

// migrateCmd rewrites the menu file in the current format
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Rewrite the menu file in the current record format",
	Long: `Loads the menu file, upgrading legacy {"text": ...} records to the
messages/media/links form, and writes it back.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		if err := st.Save(); err != nil {
			return err
		}
		s := st.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "%s: rewrote %d topics\n", st.Path(), s.Topics)
		return nil
	},
}

// treeCmd prints the menu hierarchy
var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the menu hierarchy with message counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		printTree(cmd.OutOrStdout(), st)
		return nil
	},
}

func printTree(w io.Writer, st *store.Store) {
	for _, age := range st.Ages() {
		fmt.Fprintln(w, age)
		for _, season := range st.Seasons(age) {
			fmt.Fprintf(w, "  %s\n", season)
			for _, topic := range st.Topics(age, season) {
				rec, _ := st.Get(age, season, topic)
				fmt.Fprintf(w, "    %s (%d)\n", topic, len(rec.Messages))
			}
		}
	}
}

// historyCmd lists journal entries
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent operator changes from the journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal(cfg)
		if err != nil {
			return err
		}
		if j == nil {
			return fmt.Errorf("journal disabled (store.journal_path is empty)")
		}
		defer j.Close()

		changes, err := j.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		printHistory(cmd.OutOrStdout(), changes)
		return nil
	},
}

func printHistory(w io.Writer, changes []store.Change) {
	if len(changes) == 0 {
		fmt.Fprintln(w, "no changes recorded")
		return
	}
	for _, c := range changes {
		where := strings.Join([]string{c.Age, c.Season, c.Topic}, " / ")
		line := fmt.Sprintf("%s  %-15s %s", c.At.Format("2006-01-02 15:04:05"), c.Op, where)
		if c.NewTitle != "" {
			line += " → " + c.NewTitle
		}
		if c.Index != nil {
			line += fmt.Sprintf(" #%d", *c.Index+1)
		}
		if c.Detail != "" {
			line += fmt.Sprintf("  %q", c.Detail)
		}
		fmt.Fprintf(w, "%s  (by %d)\n", line, c.Actor)
	}
}
