package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runInstancesCmd(t *testing.T, format string, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewInstancesCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func decodeInstances(t *testing.T, buf *bytes.Buffer) InstancesResult {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   InstancesResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func names(entries []InstanceEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestInstances_ClassThenSubclasses(t *testing.T) {
	buf, err := runInstancesCmd(t, "json", zooFixture(), "--class", "animal")
	require.NoError(t, err)

	result := decodeInstances(t, buf)
	assert.Equal(t, "animal", result.Class)
	assert.Equal(t, []string{"generic", "rex", "tom"}, names(result.Instances))
	assert.Equal(t, "dog", result.Instances[1].Class)
}

func TestInstances_RootClassHasNoDirectInstances(t *testing.T) {
	buf, err := runInstancesCmd(t, "json", zooFixture(), "--class", "USER")
	require.NoError(t, err)

	result := decodeInstances(t, buf)
	assert.Equal(t, []string{"generic", "rex", "tom"}, names(result.Instances))
}

func TestInstances_DeletedAreSkipped(t *testing.T) {
	buf, err := runInstancesCmd(t, "json", zooFixture(), "--class", "animal", "--delete", "rex")
	require.NoError(t, err)

	result := decodeInstances(t, buf)
	assert.Equal(t, []string{"generic", "tom"}, names(result.Instances))
	assert.Equal(t, []string{"rex"}, result.Deleted)
}

func TestInstances_LeafClassText(t *testing.T) {
	buf, err := runInstancesCmd(t, "text", zooFixture(), "--class", "cat")
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "tom")
	assert.NotContains(t, buf.String(), "rex")
	assert.Contains(t, buf.String(), "1 instance(s)")
}

func TestInstances_EmptyText(t *testing.T) {
	buf, err := runInstancesCmd(t, "text", zooFixture(), "--class", "cat", "--delete", "tom")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No instances of cat")
}

func TestInstances_UnknownClass(t *testing.T) {
	buf, err := runInstancesCmd(t, "json", zooFixture(), "--class", "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeUnknownClass, resp.Error.Code)
}

func TestInstances_UnknownInstance(t *testing.T) {
	_, err := runInstancesCmd(t, "text", zooFixture(), "--class", "animal", "--delete", "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "instance not found: ghost")
}

func TestInstances_ClassRequired(t *testing.T) {
	_, err := runInstancesCmd(t, "text", zooFixture())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "class")
}
