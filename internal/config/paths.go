package config

import (
	"os"
	"path/filepath"
)

// Dir returns the dpm config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/dpm if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "dpm"), nil
}

// StateDir returns the directory holding the generation store, respecting
// XDG_STATE_HOME. Defaults to ~/.local/state/dpm. The directory is created
// if it does not exist.
func StateDir() (string, error) {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "state")
	}
	dir := filepath.Join(base, "dpm")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
