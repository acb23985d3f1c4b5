package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ResolvesFixture(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "cursor_garbage.yaml"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("testdata", "fixtures", "zoo"), s.Fixture)
	assert.Len(t, s.Steps, 7)
	assert.Equal(t, []string{"rex"}, s.Steps[1].DeleteDuring)
}

func TestLoadScenario_MissingFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: s
description: d
fixture: nowhere
steps:
  - op: clear
`), 0644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixture not found")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: s\ndescription: d\nstep: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			yaml:    "description: d\nsteps: [{op: clear}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: s\nsteps: [{op: clear}]\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			yaml:    "name: s\ndescription: d\n",
			wantErr: "steps list is required",
		},
		{
			name:    "unknown op",
			yaml:    "name: s\ndescription: d\nsteps: [{op: explode}]\n",
			wantErr: `unknown op "explode"`,
		},
		{
			name:    "missing op",
			yaml:    "name: s\ndescription: d\nsteps: [{class: A}]\n",
			wantErr: "op is required",
		},
		{
			name:    "define without class",
			yaml:    "name: s\ndescription: d\nsteps: [{op: define_class}]\n",
			wantErr: "class is required",
		},
		{
			name:    "make without instance",
			yaml:    "name: s\ndescription: d\nsteps: [{op: make_instance, class: A}]\n",
			wantErr: "class and instance are required",
		},
		{
			name:    "teardown without name",
			yaml:    "name: s\ndescription: d\nsteps: [{op: register_teardown}]\n",
			wantErr: "name is required for register_teardown",
		},
		{
			name:    "unknown expect",
			yaml:    "name: s\ndescription: d\nsteps: [{op: clear, expect: maybe}]\n",
			wantErr: `unknown expect "maybe"`,
		},
		{
			name:    "unknown assertion",
			yaml:    "name: s\ndescription: d\nsteps: [{op: clear}]\nassertions: [{type: vibes}]\n",
			wantErr: `unknown assertion type "vibes"`,
		},
		{
			name:    "trace_order without labels",
			yaml:    "name: s\ndescription: d\nsteps: [{op: clear}]\nassertions: [{type: trace_order}]\n",
			wantErr: "labels list is required",
		},
		{
			name:    "journal_count without outcome",
			yaml:    "name: s\ndescription: d\nsteps: [{op: clear}]\nassertions: [{type: journal_count, count: 1}]\n",
			wantErr: "outcome is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScenario_Valid(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: minimal
description: one clear
steps:
  - op: clear
assertions:
  - type: routers_balanced
`))
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, OpClear, s.Steps[0].Op)
	assert.Equal(t, AssertRoutersBalanced, s.Assertions[0].Type)
}
