package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := loadSettings(filepath.Join(t.TempDir(), "missing.json"), envOf(nil))
	require.NoError(t, err)
	assert.Equal(t, defaultSettings(), s)
}

func TestLoadSettings_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"dir": "/from/file", "log_level": "debug"}`), 0o600))

	s, err := loadSettings(path, envOf(nil))
	require.NoError(t, err)
	assert.Equal(t, Settings{Dir: "/from/file", LogLevel: "debug", LogFormat: "text"}, s)

	s, err = loadSettings(path, envOf(map[string]string{
		"ADDONKIT_DIR":        "/from/env",
		"ADDONKIT_LOG_FORMAT": "json",
	}))
	require.NoError(t, err)
	assert.Equal(t, Settings{Dir: "/from/env", LogLevel: "debug", LogFormat: "json"}, s)
}

func TestLoadSettings_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, err := loadSettings(path, envOf(nil))
	assert.Error(t, err)
}

func TestSaveSettings_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	want := Settings{Dir: "/addon", LogLevel: "warn", LogFormat: "json"}
	require.NoError(t, saveSettings(path, want))

	got, err := loadSettings(path, envOf(nil))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
