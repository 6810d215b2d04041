package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Settings holds the CLI configuration.
// Priority: flags > env vars > settings.json > defaults.
type Settings struct {
	// Dir is the addon root holding one directory per category. Empty means
	// the embedded builtin units.
	Dir       string `json:"dir,omitempty"`
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
}

func defaultSettings() Settings {
	return Settings{
		LogLevel:  "info",
		LogFormat: "text",
	}
}

func addonkitDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".addonkit"
	}
	return filepath.Join(home, ".addonkit")
}

func settingsPath() string {
	return filepath.Join(addonkitDir(), "settings.json")
}

// loadSettings layers settings.json at path and then env vars over the
// defaults. A missing file is not an error; a malformed one is.
func loadSettings(path string, getenv func(string) string) (Settings, error) {
	s := defaultSettings()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return s, fmt.Errorf("read %s: %w", path, err)
	}

	if v := getenv("ADDONKIT_DIR"); v != "" {
		s.Dir = v
	}
	if v := getenv("ADDONKIT_LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
	if v := getenv("ADDONKIT_LOG_FORMAT"); v != "" {
		s.LogFormat = v
	}
	return s, nil
}

// saveSettings writes s to path, creating the directory if needed.
func saveSettings(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
