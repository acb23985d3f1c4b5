package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "envrt.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, 1, cfg.Parallel)
	assert.False(t, cfg.NoTrace)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_AllKeys(t *testing.T) {
	path := writeConfig(t, `
format   = "json"
verbose  = true
journal  = " ./envrt.db "
env_id   = "dev-1"
trace    = false
parallel = 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Format:   "json",
		Verbose:  true,
		Journal:  "./envrt.db",
		EnvID:    "dev-1",
		NoTrace:  true,
		Parallel: 4,
	}, cfg)
}

func TestLoad_MissingKeysKeepDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `journal = "j.db"`))
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, 1, cfg.Parallel)
	assert.False(t, cfg.NoTrace)
	assert.Equal(t, "j.db", cfg.Journal)
}

func TestLoad_TraceEnabledExplicitly(t *testing.T) {
	cfg, err := Load(writeConfig(t, `trace = true`))
	require.NoError(t, err)
	assert.False(t, cfg.NoTrace)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "unknown key", content: `colour = "red"`, wantErr: "unknown keys: colour"},
		{name: "bad format", content: `format = "yaml"`, wantErr: `invalid format "yaml"`},
		{name: "bad parallel", content: `parallel = 0`, wantErr: "parallel must be at least 1"},
		{name: "wrong type", content: `verbose = "yes"`, wantErr: "load config"},
		{name: "syntax", content: `format = `, wantErr: "load config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
