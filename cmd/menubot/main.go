// Command menubot serves the activity-menu Telegram bot and its maintenance
// commands.
package main

import (
	"fmt"
	"os"

	"menubot/internal/config"
	"menubot/internal/logging"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	menuPath   string
	verbose    bool

	// Loaded in PersistentPreRunE
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "menubot",
	Short: "menubot - a menu-driven Telegram bot for a children's activity catalog",
	Long: `menubot presents a catalog of activities organised by age group,
season and topic through reply keyboards. One operator account edits the
catalog from inside the chat; every edit is written back to the menu file.

Run "menubot serve" to start long polling, or "menubot console" to walk
the same conversation in the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if menuPath != "" {
			loaded.Store.MenuFile = menuPath
		}
		if verbose {
			loaded.Logging.DebugMode = true
		}
		if err := loaded.ValidateLocal(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = loaded

		// The console owns the terminal; its logs go to a file or nowhere.
		if cmd.Name() == "console" && cfg.Logging.File == "" {
			return nil
		}
		if _, err := logging.Initialize(cfg.Logging.Options()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "menubot.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVarP(&menuPath, "menu", "m", "", "Menu file (overrides store.menu_file)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	consoleCmd.Flags().Int64Var(&consoleUserID, "user-id", 0, "User ID to act as (default: a reader account)")
	consoleCmd.Flags().BoolVar(&consoleOperator, "operator", false, "Act as the configured operator")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show")

	rootCmd.AddCommand(
		serveCmd,
		consoleCmd,
		checkCmd,
		migrateCmd,
		treeCmd,
		historyCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
