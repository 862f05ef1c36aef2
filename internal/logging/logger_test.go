package logging

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	Use(zap.New(core))
	SetCategories(nil)
	t.Cleanup(func() {
		Use(nil)
		SetCategories(nil)
	})
	return logs
}

func TestGet_TagsCategory(t *testing.T) {
	logs := observe(t)

	Get(CategoryStore).Info("saved %d topics", 3)

	entries := logs.FilterMessage("saved 3 topics").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "store", entries[0].ContextMap()["category"])
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
}

func TestGet_DisabledCategoryIsSilent(t *testing.T) {
	logs := observe(t)
	SetCategories(map[string]bool{"watcher": false, "store": true})

	Watcher("should not appear")
	Store("should appear")

	assert.Equal(t, 0, logs.FilterMessage("should not appear").Len())
	assert.Equal(t, 1, logs.FilterMessage("should appear").Len())
	assert.False(t, IsCategoryEnabled(CategoryWatcher))
	assert.True(t, IsCategoryEnabled(CategoryRouting), "unlisted categories default to enabled")
}

func TestWithRequestID(t *testing.T) {
	logs := observe(t)

	WithRequestID(CategoryRouting, "req-1").Warn("no route for %q", "hello")

	entries := logs.FilterField(zap.String("req", "req-1")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, `no route for "hello"`, entries[0].Message)
	assert.Equal(t, "routing", entries[0].ContextMap()["category"])
}

func TestTimer_StopWithThreshold(t *testing.T) {
	logs := observe(t)

	timer := StartTimer(CategoryStore, "Save")
	timer.start = time.Now().Add(-time.Second)
	elapsed := timer.StopWithThreshold(10 * time.Millisecond)

	assert.GreaterOrEqual(t, elapsed, time.Second)
	perf := logs.FilterField(zap.String("category", "performance")).All()
	require.Len(t, perf, 1)
	assert.Equal(t, zapcore.WarnLevel, perf[0].Level)
}

func TestInitialize(t *testing.T) {
	t.Cleanup(func() { Use(nil) })

	_, err := Initialize(Config{Level: "shouting"})
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "menubot.log")
	l, err := Initialize(Config{Level: "warn", Format: "console", File: path})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = Initialize(Config{Level: "warn", DebugMode: true, File: path})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel), "debug_mode forces debug level")
}

func TestConvenience_Levels(t *testing.T) {
	logs := observe(t)

	BootError("serve stopped: %v", "boom")
	StoreWarn("keeping %s", "tree")
	RoutingDebug("%d routes", 4)

	cases := []struct {
		msg      string
		level    zapcore.Level
		category string
	}{
		{"serve stopped: boom", zapcore.ErrorLevel, "boot"},
		{"keeping tree", zapcore.WarnLevel, "store"},
		{"4 routes", zapcore.DebugLevel, "routing"},
	}
	for _, tc := range cases {
		entries := logs.FilterMessage(tc.msg).All()
		require.Len(t, entries, 1, tc.msg)
		assert.Equal(t, tc.level, entries[0].Level, tc.msg)
		assert.Equal(t, tc.category, entries[0].ContextMap()["category"], tc.msg)
	}
}
