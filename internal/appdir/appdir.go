// Package appdir provides constants and utilities for the per-user application
// directory.
package appdir

import (
	"errors"
	"path/filepath"
)

const (
	// Dir is the name of the application directory inside the user's home.
	Dir = ".todotauriapp"

	// TodoFile is the name of the persisted task list (inside Dir).
	TodoFile = "todos.json"

	// ConfigFile is the name of the optional config file (inside Dir).
	ConfigFile = "todo.toml"
)

// HomeEnvVars are the environment variables consulted, in order, for the
// user's home directory.
var HomeEnvVars = []string{"HOME", "USERPROFILE"}

// ErrNoHome is returned when none of HomeEnvVars is set.
var ErrNoHome = errors.New("home directory not set (HOME or USERPROFILE)")

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Home returns the first non-empty value of HomeEnvVars.
func Home(lookup LookupFunc) (string, error) {
	for _, key := range HomeEnvVars {
		if v, ok := lookup(key); ok && v != "" {
			return v, nil
		}
	}
	return "", ErrNoHome
}

// DirPath returns the application directory within home.
func DirPath(home string) string {
	return filepath.Join(home, Dir)
}

// TodoPath returns the task file path within a data directory.
func TodoPath(dataDir string) string {
	return filepath.Join(dataDir, TodoFile)
}

// ConfigPath returns the config file path within a data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFile)
}
