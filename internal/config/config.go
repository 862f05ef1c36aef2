package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all menubot configuration.
type Config struct {
	// Telegram transport and operator identity
	Bot BotConfig `yaml:"bot"`

	// Content tree persistence
	Store StoreConfig `yaml:"store"`

	// Per-user conversation sessions
	Session SessionConfig `yaml:"session"`

	// Outgoing message splitting
	Chunker ChunkerConfig `yaml:"chunker"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Button labels and prompts shown to users
	Texts Texts `yaml:"texts"`
}

// BotConfig configures the chat transport.
type BotConfig struct {
	Token       string `yaml:"token"`
	OperatorID  int64  `yaml:"operator_id"`
	PollTimeout string `yaml:"poll_timeout"`
	ParseMode   string `yaml:"parse_mode"` // HTML, Markdown, MarkdownV2 or empty
}

// StoreConfig configures the content tree document and its side stores.
type StoreConfig struct {
	MenuFile      string `yaml:"menu_file"`
	AtomicWrite   bool   `yaml:"atomic_write"`
	Watch         bool   `yaml:"watch"`
	WatchDebounce string `yaml:"watch_debounce"`

	// JournalPath is the SQLite change journal; empty disables it.
	JournalPath string `yaml:"journal_path"`
}

// SessionConfig configures the dispatcher's session table.
type SessionConfig struct {
	TTL           string `yaml:"ttl"`
	SweepInterval string `yaml:"sweep_interval"`
}

// ChunkerConfig configures outgoing text splitting.
type ChunkerConfig struct {
	// MaxLength in code points; the Telegram cap is 4096.
	MaxLength int `yaml:"max_length"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Bot: BotConfig{
			PollTimeout: "10s",
			ParseMode:   "HTML",
		},

		Store: StoreConfig{
			MenuFile:      "menu_data.json",
			AtomicWrite:   true,
			Watch:         true,
			WatchDebounce: "500ms",
			JournalPath:   "data/journal.db",
		},

		Session: SessionConfig{
			TTL:           "24h",
			SweepInterval: "10m",
		},

		Chunker: ChunkerConfig{
			MaxLength: 4000,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},

		Texts: DefaultTexts(),
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Defaults plus environment if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Partially specified texts fall back to the defaults
	cfg.Texts = cfg.Texts.withDefaults(DefaultTexts())

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if token := os.Getenv("BOT_TOKEN"); token != "" {
		c.Bot.Token = token
	}
	if raw := strings.TrimSpace(os.Getenv("MENUBOT_OPERATOR_ID")); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			c.Bot.OperatorID = id
		}
	}
	if path := os.Getenv("MENUBOT_MENU_FILE"); path != "" {
		c.Store.MenuFile = path
	}
	if path, ok := os.LookupEnv("MENUBOT_JOURNAL"); ok {
		// Set but empty disables the journal
		c.Store.JournalPath = path
	}
	if level := os.Getenv("MENUBOT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetPollTimeout returns the long-poll timeout as a duration.
func (c *Config) GetPollTimeout() time.Duration {
	d, err := time.ParseDuration(c.Bot.PollTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// GetSessionTTL returns the idle session lifetime. Zero disables expiry.
func (c *Config) GetSessionTTL() time.Duration {
	if c.Session.TTL == "" || c.Session.TTL == "0" {
		return 0
	}
	d, err := time.ParseDuration(c.Session.TTL)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// GetSweepInterval returns how often idle sessions are swept.
func (c *Config) GetSweepInterval() time.Duration {
	d, err := time.ParseDuration(c.Session.SweepInterval)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// GetWatchDebounce returns the debounce window for menu file events.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Store.WatchDebounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// ValidParseModes lists parse modes accepted by the transport.
var ValidParseModes = []string{"", "HTML", "Markdown", "MarkdownV2"}

// Validate validates the configuration needed to serve Telegram traffic.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return fmt.Errorf("bot token not configured (set BOT_TOKEN or bot.token)")
	}
	if c.Bot.OperatorID == 0 {
		return fmt.Errorf("operator id not configured (set MENUBOT_OPERATOR_ID or bot.operator_id)")
	}
	return c.ValidateLocal()
}

// ValidateLocal validates the settings shared by every command.
func (c *Config) ValidateLocal() error {
	if c.Store.MenuFile == "" {
		return fmt.Errorf("store.menu_file must not be empty")
	}
	if c.Chunker.MaxLength < 0 || c.Chunker.MaxLength > 4096 {
		return fmt.Errorf("chunker.max_length must be between 0 (default) and 4096, got %d", c.Chunker.MaxLength)
	}

	validMode := false
	for _, m := range ValidParseModes {
		if c.Bot.ParseMode == m {
			validMode = true
			break
		}
	}
	if !validMode {
		return fmt.Errorf("invalid parse mode: %s (valid: %v)", c.Bot.ParseMode, ValidParseModes)
	}

	if err := c.Logging.Validate(); err != nil {
		return err
	}

	seen := make(map[string]string)
	for name, label := range c.Texts.Buttons() {
		if label == "" {
			return fmt.Errorf("texts.%s must not be empty", name)
		}
		if other, dup := seen[label]; dup {
			return fmt.Errorf("texts.%s and texts.%s share the label %q", name, other, label)
		}
		seen[label] = name
	}

	return nil
}
