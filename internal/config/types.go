package config

import (
	"github.com/nibzard/todo-go/internal/appdir"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource

	// Warnings lists non-fatal problems, such as unknown keys in the
	// config file.
	Warnings []string
}

// Default values.
const (
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
)

// Config holds the full configuration for todo.
type Config struct {
	// DataDir holds todos.json. Empty means <home>/.todotauriapp.
	DataDir string `toml:"data_dir"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Hooks
	HookCommand string `toml:"hook_command"`

	// StrictLoad validates todos.json before installing it.
	StrictLoad bool `toml:"strict_load"`

	// Resolved home directory (computed, may be empty)
	Home string `toml:"-"`

	// User config file that was read, if any (computed)
	ConfigFile string `toml:"-"`

	// dataDirErr explains why DataDir is empty.
	dataDirErr error
}

// RequireDataDir returns an error wrapping appdir.ErrNoHome when no data
// directory could be resolved.
func (c *Config) RequireDataDir() error {
	if c.dataDirErr != nil {
		return c.dataDirErr
	}
	if c.DataDir == "" {
		return appdir.ErrNoHome
	}
	return nil
}

// TodoPath returns the task file path inside DataDir.
func (c *Config) TodoPath() string {
	return appdir.TodoPath(c.DataDir)
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"data_dir",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
		"hook_command",
		"strict_load",
	}
}

// Fields returns the configurable keys in display order.
func Fields() []string {
	return configFields()
}

// Value returns the display form of the named key.
func (c *Config) Value(field string) string {
	switch field {
	case "data_dir":
		return c.DataDir
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "log_timestamps":
		return boolString(c.LogTimestamps)
	case "log_caller":
		return boolString(c.LogCaller)
	case "hook_command":
		return c.HookCommand
	case "strict_load":
		return boolString(c.StrictLoad)
	}
	return ""
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.DataDir = ""
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.LogTimestamps = false
	cfg.LogCaller = false
	cfg.HookCommand = ""
	cfg.StrictLoad = false
}
