package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func resetState(t *testing.T) {
	t.Helper()
	CloseAll()
	SetConsole(nil)
	configMu.Lock()
	options = Options{}
	logsDir = ""
	configMu.Unlock()
	t.Cleanup(func() {
		CloseAll()
		SetConsole(nil)
	})
}

// TestAllCategoriesLog tests that every category creates its file when debug mode is on
func TestAllCategoriesLog(t *testing.T) {
	resetState(t)
	dir := t.TempDir()

	require.NoError(t, Initialize(dir, Options{DebugMode: true, Level: "debug"}))

	categories := []Category{
		CategoryBoot, CategoryFetch, CategoryCache, CategorySchedule,
		CategoryQuery, CategoryRender, CategoryCommand, CategoryWatch,
	}
	for _, cat := range categories {
		Get(cat).Info("hello from %s", cat)
	}
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(dir, "logs"))
	require.NoError(t, err)

	found := make(map[string]bool)
	for _, e := range entries {
		for _, cat := range categories {
			if strings.HasSuffix(e.Name(), "_"+string(cat)+".log") {
				found[string(cat)] = true
			}
		}
	}
	for _, cat := range categories {
		assert.True(t, found[string(cat)], "missing log file for %s", cat)
	}
}

func TestProductionModeIsSilent(t *testing.T) {
	resetState(t)
	dir := t.TempDir()

	require.NoError(t, Initialize(dir, Options{DebugMode: false}))
	Fetch("should not be written")

	_, err := os.Stat(filepath.Join(dir, "logs"))
	assert.True(t, os.IsNotExist(err), "logs dir must not exist in production mode")
}

func TestCategoryFilter(t *testing.T) {
	resetState(t)
	dir := t.TempDir()

	require.NoError(t, Initialize(dir, Options{
		DebugMode:  true,
		Categories: map[string]bool{"render": false},
	}))

	assert.False(t, IsCategoryEnabled(CategoryRender))
	assert.True(t, IsCategoryEnabled(CategoryFetch))
}

func TestConsoleReceivesCategories(t *testing.T) {
	resetState(t)
	core, logs := observer.New(zap.DebugLevel)
	SetConsole(zap.New(core))

	Get(CategoryCommand).With("req", "abc").Info("dispatched %s", "速览")
	FetchDebug("attempt %d", 1)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "command", entries[0].LoggerName)
	assert.Equal(t, "dispatched 速览", entries[0].Message)
	assert.Equal(t, "abc", entries[0].ContextMap()["req"])
	assert.Equal(t, "fetch", entries[1].LoggerName)
}

func TestNoSinkIsNoop(t *testing.T) {
	resetState(t)
	l := Get(CategoryWatch)
	assert.Nil(t, l.sugar)
	l.Info("nothing")
	l.With("k", "v").Error("still nothing")
}

func TestInitializeRequiresDir(t *testing.T) {
	resetState(t)
	assert.Error(t, Initialize("", Options{}))
}
