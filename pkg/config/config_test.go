package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// isolate points HOME at an empty directory so user files never leak in.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)
	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "cook> ", cfg.Prompt)
	assert.Equal(t, ColorAuto, cfg.Color)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, filepath.Join(home, ".cookbook", "history"), cfg.HistoryFile)
	assert.Empty(t, cfg.Source)
}

func TestLoadProjectYAML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".cookbook.yaml"), "prompt: \"chef> \"\ncolor: never\n")

	cfg, err := Load("", dir)
	require.NoError(t, err)
	assert.Equal(t, "chef> ", cfg.Prompt)
	assert.Equal(t, ColorNever, cfg.Color)
	// Unset fields keep defaults.
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, filepath.Join(dir, ".cookbook.yaml"), cfg.Source)
}

func TestLoadProjectTOML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".cookbook.toml"), "log_level = \"debug\"\ntrace_file = \"out.jsonl\"\n")

	cfg, err := Load("", dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "out.jsonl", cfg.TraceFile)
}

func TestProjectYAMLWinsOverTOML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".cookbook.yaml"), "prompt: yaml> \n")
	writeFile(t, filepath.Join(dir, ".cookbook.toml"), "prompt = \"toml> \"\n")

	cfg, err := Load("", dir)
	require.NoError(t, err)
	assert.Equal(t, "yaml>", cfg.Prompt)
}

func TestLoadUserConfig(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".cookbook", "config.yaml"), "history_file: ~/cook_history\n")

	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cook_history"), cfg.HistoryFile)
}

func TestProjectWinsOverUser(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".cookbook", "config.yaml"), "prompt: user\n")
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".cookbook.yaml"), "prompt: project\n")

	cfg, err := Load("", dir)
	require.NoError(t, err)
	assert.Equal(t, "project", cfg.Prompt)
}

func TestExplicitPathWins(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".cookbook.yaml"), "prompt: project\n")
	explicit := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, explicit, "prompt: explicit\n")

	cfg, err := Load(explicit, dir)
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.Prompt)
}

func TestExplicitPathMissing(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestUnknownFieldRejected(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "promt: typo\n")

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestInvalidValues(t *testing.T) {
	isolate(t)
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"color", "color: rainbow\n", "color must be"},
		{"log level", "log_level: chatty\n", "unknown log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yaml")
			writeFile(t, path, tt.content)
			_, err := LoadFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEmptyFileKeepsDefaults(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "empty.yaml")
	writeFile(t, path, "")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cook> ", cfg.Prompt)
}

func TestUnknownTOMLFieldRejected(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	writeFile(t, path, "colour = \"never\"\n")

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}
