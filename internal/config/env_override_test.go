package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("BOT_TOKEN sets token", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", "123:env")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "123:env", cfg.Bot.Token)
	})

	t.Run("MENUBOT_OPERATOR_ID parses", func(t *testing.T) {
		t.Setenv("MENUBOT_OPERATOR_ID", " 711960970 ")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, int64(711960970), cfg.Bot.OperatorID)
	})

	t.Run("invalid MENUBOT_OPERATOR_ID is ignored", func(t *testing.T) {
		t.Setenv("MENUBOT_OPERATOR_ID", "admin")

		cfg := DefaultConfig()
		cfg.Bot.OperatorID = 7
		cfg.applyEnvOverrides()

		assert.Equal(t, int64(7), cfg.Bot.OperatorID)
	})

	t.Run("MENUBOT_MENU_FILE overrides path", func(t *testing.T) {
		t.Setenv("MENUBOT_MENU_FILE", "/srv/menu.json")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/srv/menu.json", cfg.Store.MenuFile)
	})

	t.Run("empty MENUBOT_JOURNAL disables journal", func(t *testing.T) {
		t.Setenv("MENUBOT_JOURNAL", "")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Empty(t, cfg.Store.JournalPath)
	})

	t.Run("MENUBOT_LOG_LEVEL overrides level", func(t *testing.T) {
		t.Setenv("MENUBOT_LOG_LEVEL", "debug")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "debug", cfg.Logging.Level)
	})
}

func TestLoggingConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LoggingConfig
		wantErr string
	}{
		{name: "defaults", cfg: DefaultConfig().Logging},
		{name: "empty", cfg: LoggingConfig{}},
		{name: "console debug", cfg: LoggingConfig{Level: "debug", Format: "console"}},
		{name: "bad level", cfg: LoggingConfig{Level: "loud"}, wantErr: "logging.level"},
		{name: "bad format", cfg: LoggingConfig{Format: "text"}, wantErr: "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoggingConfig_Options(t *testing.T) {
	c := LoggingConfig{Level: "warn", Format: "console", DebugMode: true, Categories: map[string]bool{"store": false}}
	opts := c.Options()
	assert.Equal(t, "warn", opts.Level)
	assert.Equal(t, "console", opts.Format)
	assert.True(t, opts.DebugMode)
	assert.Equal(t, map[string]bool{"store": false}, opts.Categories)
}
