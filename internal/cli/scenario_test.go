package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/roach88/envrt/internal/journal"
)

const passingScenario = `name: teardown_then_clear
description: "one teardown runs on clear"
steps:
  - op: register_teardown
    name: A
  - op: clear
assertions:
  - type: trace_order
    labels: ["register_teardown:A", "teardown:A", "clear"]
  - type: routers_balanced
`

const failingScenario = `name: wrong_expectation
description: "the clear succeeds but busy was expected"
steps:
  - op: clear
    expect: clear_busy
`

func writeScenarios(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func runScenarioCmd(t *testing.T, format string, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewScenarioCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestScenario_HarnessScenariosPass(t *testing.T) {
	buf, err := runScenarioCmd(t, "text", filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "✓ busy_clear")
	assert.Contains(t, out, "Scenario Summary: 3 passed, 0 failed, 3 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestScenario_FailureExitCode(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"ok.yaml":  passingScenario,
		"bad.yaml": failingScenario,
	})

	buf, err := runScenarioCmd(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeScenarioFailed, resp.Error.Code)

	// bad.yaml sorts first.
	assert.Equal(t, "wrong_expectation", resp.Data.Scenarios[0].Name)
	assert.Contains(t, resp.Data.Scenarios[0].Errors[0], "expected clear_busy, got ok")
}

func TestScenario_Filter(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"ok.yaml":  passingScenario,
		"bad.yaml": failingScenario,
	})

	buf, err := runScenarioCmd(t, "text", dir, "--filter", "ok")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "1 passed, 0 failed, 1 total")
}

func TestScenario_UpdateThenCompare(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"ok.yaml": passingScenario})

	buf, err := runScenarioCmd(t, "text", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "golden updated")

	golden := filepath.Join(dir, "golden", "teardown_then_clear.golden")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name": "teardown_then_clear"`)

	_, err = runScenarioCmd(t, "text", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte("{}\n"), 0644))
	buf, err = runScenarioCmd(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "does not match golden file")
}

func TestScenario_LoadError(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"broken.yaml": "name: broken\nsteps: nope\n"})

	buf, err := runScenarioCmd(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "✗ broken.yaml")
	assert.Contains(t, buf.String(), "failed to load scenario")
}

func TestScenario_NoScenarios(t *testing.T) {
	buf, err := runScenarioCmd(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No scenarios found.")
}

func TestScenario_MissingPath(t *testing.T) {
	_, err := runScenarioCmd(t, "text", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestScenario_SharedJournal(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"ok.yaml": passingScenario})
	db := filepath.Join(t.TempDir(), "envrt.db")

	for range 2 {
		_, err := runScenarioCmd(t, "text", dir, "--journal", db)
		require.NoError(t, err)
	}

	j, err := journal.Open(db)
	require.NoError(t, err)
	defer j.Close()

	events, err := j.List(t.Context(), "teardown_then_clear")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestScenario_ParallelKeepsFileOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := writeScenarios(t, map[string]string{
		"a.yaml": passingScenario,
		"b.yaml": failingScenario,
		"c.yaml": strings.Replace(passingScenario, "teardown_then_clear", "teardown_again", 1),
	})
	db := filepath.Join(t.TempDir(), "envrt.db")

	buf, err := runScenarioCmd(t, "json", dir, "--parallel", "3", "--journal", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data.Scenarios, 3)
	assert.Equal(t, "teardown_then_clear", resp.Data.Scenarios[0].Name)
	assert.Equal(t, "wrong_expectation", resp.Data.Scenarios[1].Name)
	assert.Equal(t, "teardown_again", resp.Data.Scenarios[2].Name)
	assert.Equal(t, 2, resp.Data.Passed)

	j, err := journal.Open(db)
	require.NoError(t, err)
	defer j.Close()
	envs, err := j.Environments(t.Context())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"teardown_then_clear", "wrong_expectation", "teardown_again"}, envs)
}

func TestScenario_InvalidParallel(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"ok.yaml": passingScenario})

	_, err := runScenarioCmd(t, "text", dir, "--parallel", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFilterScenarioFiles_InvalidPattern(t *testing.T) {
	_, err := filterScenarioFiles([]string{"a.yaml"}, "[")
	assert.Error(t, err)
}
