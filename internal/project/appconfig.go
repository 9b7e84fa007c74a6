package project

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/piwi3910/SolarLayout/internal/model"
)

// HomeEnv overrides the directory holding the user config, the preset
// inventory and backups.
const HomeEnv = "SOLARLAYOUT_HOME"

// DefaultConfigDir returns $SOLARLAYOUT_HOME, or ~/.solarlayout when it is
// unset.
func DefaultConfigDir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".solarlayout")
}

// DefaultConfigPath is config.json inside DefaultConfigDir.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// SaveAppConfig normalizes config and writes it to path.
func SaveAppConfig(path string, config model.AppConfig) error {
	config.Normalize()
	return writeJSON(path, config)
}

// LoadAppConfig reads the user config at path on top of the defaults, so a
// missing file or missing fields fall back to model.DefaultAppConfig.
// Unusable values such as a zero electricity price are reset and logged.
func LoadAppConfig(path string) (model.AppConfig, error) {
	config := model.DefaultAppConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return model.AppConfig{}, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return model.AppConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if reset := config.Normalize(); len(reset) > 0 {
		slog.Warn("config values reset to defaults", "path", path, "fields", reset)
	}
	return config, nil
}

// writeJSON marshals v with indentation and writes it to path, creating
// parent directories as needed.
func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
