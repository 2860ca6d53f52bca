package logging

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAudit(t *testing.T, dir string) []AuditEvent {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "logs", "*_audit.jsonl"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	f, err := os.Open(matches[0])
	require.NoError(t, err)
	defer f.Close()

	var events []AuditEvent
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e AuditEvent
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		events = append(events, e)
	}
	return events
}

func TestAudit_WritesJSONLines(t *testing.T) {
	resetState(t)
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Options{DebugMode: true}))
	require.NoError(t, InitAudit())
	t.Cleanup(CloseAudit)

	a := Audit("req-1", CategoryCommand)
	a.CommandReceived("速览", "12-3 上期")
	a.CommandReplied("速览", "jpeg", 1500*time.Millisecond, "")
	a.CommandIgnored("深渊统计", "上期")
	Audit("", CategorySchedule).DatasetEvent(AuditDatasetRefresh, time.Second, errors.New("status 503"))
	CloseAudit()

	events := readAudit(t, dir)
	require.Len(t, events, 4)

	assert.Equal(t, AuditCommandReceived, events[0].EventType)
	assert.Equal(t, "req-1", events[0].RequestID)
	assert.Equal(t, "command", events[0].Category)
	assert.Equal(t, "12-3 上期", events[0].Words)
	assert.NotZero(t, events[0].Timestamp)

	assert.Equal(t, int64(1500), events[1].DurationMs)
	assert.True(t, events[1].Success)
	assert.Equal(t, "jpeg", events[1].Reply)

	assert.Equal(t, AuditCommandIgnored, events[2].EventType)

	assert.False(t, events[3].Success)
	assert.Equal(t, "status 503", events[3].Error)
	assert.Equal(t, "schedule", events[3].Category)
}

func TestAudit_ProductionModeIsSilent(t *testing.T) {
	resetState(t)
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Options{DebugMode: false}))
	require.NoError(t, InitAudit())

	Audit("req", CategoryCommand).CommandReceived("速览", "")

	_, err := os.Stat(filepath.Join(dir, "logs"))
	assert.True(t, os.IsNotExist(err))
}
