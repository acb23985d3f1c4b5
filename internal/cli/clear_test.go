package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/envrt/internal/construct"
	"github.com/roach88/envrt/internal/journal"
)

func runClearCmd(t *testing.T, format string, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewClearCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestClear_Success(t *testing.T) {
	buf, err := runClearCmd(t, "text", zooFixture(), "--env-id", "dev-1")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "✓ Environment cleared")
	assert.Contains(t, out, "Environment: dev-1")
	assert.Contains(t, out, "Removed:     4 class(es), 3 instance(s)")
}

func TestClear_SuccessJSON(t *testing.T) {
	buf, err := runClearCmd(t, "json", zooFixture(), "--env-id", "dev-1")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   ClearResult `json:"data"`
		EnvID  string      `json:"env_id"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "dev-1", resp.EnvID)
	assert.Equal(t, "dev-1", resp.Data.EnvID)
	assert.Equal(t, "ok", resp.Data.Outcome)
	assert.Equal(t, []string{construct.HierarchyTeardown}, resp.Data.Teardowns)
	assert.Equal(t, 4, resp.Data.ClassesBefore)
	assert.Equal(t, 3, resp.Data.InstancesBefore)
	assert.Zero(t, resp.Data.ClassesAfter)
	assert.Zero(t, resp.Data.InstancesAfter)
}

func TestClear_BusyLeavesHierarchy(t *testing.T) {
	buf, err := runClearCmd(t, "text", zooFixture(), "--busy")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out := buf.String()
	assert.Contains(t, out, "[CONSTRCT1]")
	assert.Contains(t, out, "✗ Clear refused (busy)")
	assert.Contains(t, out, "Hierarchy untouched: 4 class(es), 3 instance(s)")
}

func TestClear_BusyJSON(t *testing.T) {
	buf, err := runClearCmd(t, "json", zooFixture(), "--busy", "--env-id", "dev-2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeClearBusy, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "env=dev-2")
	assert.Equal(t, "dev-2", resp.EnvID)
}

func TestClear_RecordsToJournal(t *testing.T) {
	db := filepath.Join(t.TempDir(), "envrt.db")

	_, err := runClearCmd(t, "text", zooFixture(), "--journal", db, "--env-id", "dev-1", "--busy")
	require.Error(t, err)
	_, err = runClearCmd(t, "text", zooFixture(), "--journal", db, "--env-id", "dev-2")
	require.NoError(t, err)

	j, err := journal.Open(db)
	require.NoError(t, err)
	defer j.Close()

	envs, err := j.Environments(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"dev-1", "dev-2"}, envs)

	events, err := j.List(t.Context(), "dev-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, construct.OutcomeBusy, events[0].Outcome)

	events, err = j.List(t.Context(), "dev-2")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, construct.OutcomeOK, events[0].Outcome)
}

func TestClear_ReusedEnvIDAppends(t *testing.T) {
	db := filepath.Join(t.TempDir(), "envrt.db")

	_, err := runClearCmd(t, "text", zooFixture(), "--journal", db, "--env-id", "dev-1")
	require.NoError(t, err)
	_, err = runClearCmd(t, "text", zooFixture(), "--journal", db, "--env-id", "dev-1", "--busy")
	require.Error(t, err)
	_, err = runClearCmd(t, "text", zooFixture(), "--journal", db, "--env-id", "dev-1")
	require.NoError(t, err)

	j, err := journal.Open(db)
	require.NoError(t, err)
	defer j.Close()

	events, err := j.List(t.Context(), "dev-1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []construct.Outcome{construct.OutcomeOK, construct.OutcomeBusy, construct.OutcomeOK},
		[]construct.Outcome{events[0].Outcome, events[1].Outcome, events[2].Outcome})
	assert.Equal(t, int64(3), events[2].Seq)
}

func TestClear_MissingFixture(t *testing.T) {
	_, err := runClearCmd(t, "text", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestClear_BadJournalPath(t *testing.T) {
	_, err := runClearCmd(t, "text", zooFixture(), "--journal", filepath.Join(t.TempDir(), "no", "such", "dir", "envrt.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
