package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// ConfigFileName is the default config file inside ConfigDir
	ConfigFileName = "notefeed.yaml"
	// LogFileName is where logs go while the terminal UI owns stdout
	LogFileName = "notefeed.log"
)

// ConfigDir returns the path to the notefeed config directory (~/.notefeed).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".notefeed"), nil
}

// EnsureConfigDir creates the config directory if it does not exist.
func EnsureConfigDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	return dir, nil
}

// DefaultPath returns the path of name inside the config directory.
// Absolute and explicitly relative paths are returned as-is.
func DefaultPath(name string) (string, error) {
	if filepath.IsAbs(name) || filepath.Base(name) != name {
		return name, nil
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
