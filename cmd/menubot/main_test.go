package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"menubot/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyMenu = `{
  "3-4 years": {
    "Winter": {
      "Snow": {"text": "Build a snowman"},
      "Ice": {"messages": ["Skate", "Slide"]}
    }
  }
}`

// execute runs the root command with a fresh config in dir.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("MENUBOT_JOURNAL", "")
	t.Setenv("MENUBOT_MENU_FILE", "")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(dir, "missing.yaml")}, args...))
	t.Cleanup(func() {
		menuPath, verbose = "", false
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeMenu(t *testing.T, body string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return dir, path
}

func TestCheckCommand(t *testing.T) {
	dir, path := writeMenu(t, legacyMenu)

	out, err := execute(t, dir, "check", "--menu", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok (1 ages, 1 seasons, 2 topics, 3 messages)")

	// check never rewrites the file
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, legacyMenu, string(data))
}

func TestCheckCommand_Corrupt(t *testing.T) {
	dir, path := writeMenu(t, `{"3-4 years": [1, 2]}`)

	_, err := execute(t, dir, "check", "--menu", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is corrupt")
}

func TestMigrateCommand(t *testing.T) {
	dir, path := writeMenu(t, legacyMenu)

	out, err := execute(t, dir, "migrate", "--menu", path)
	require.NoError(t, err)
	assert.Contains(t, out, "rewrote 2 topics")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"text"`)
	assert.Contains(t, string(data), `"Build a snowman"`)
}

func TestTreeCommand(t *testing.T) {
	dir, path := writeMenu(t, legacyMenu)

	out, err := execute(t, dir, "tree", "--menu", path)
	require.NoError(t, err)
	assert.Equal(t, "3-4 years\n  Winter\n    Snow (1)\n    Ice (2)\n", out)
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	printHistory(&buf, nil)
	assert.Equal(t, "no changes recorded\n", buf.String())

	buf.Reset()
	idx := 1
	printHistory(&buf, []store.Change{
		{At: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), Actor: 100, Op: "rename_topic", Age: "3-4 years", Season: "Winter", Topic: "Snow", NewTitle: "Snowmen"},
		{At: time.Date(2025, 1, 2, 3, 5, 0, 0, time.UTC), Actor: 100, Op: "delete_message", Age: "3-4 years", Season: "Winter", Topic: "Ice", Index: &idx, Detail: "Slide"},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "3-4 years / Winter / Snow → Snowmen")
	assert.Contains(t, lines[1], `#2  "Slide"  (by 100)`)
}

func TestHistoryCommand_Disabled(t *testing.T) {
	dir, path := writeMenu(t, legacyMenu)
	cfgPath := filepath.Join(dir, "menubot.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("store:\n  journal_path: \"\"\n"), 0o644))

	t.Setenv("MENUBOT_JOURNAL", "")
	rootCmd.SetArgs([]string{"--config", cfgPath, "--menu", path, "history"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	t.Cleanup(func() { menuPath = ""; rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "journal disabled")
}
