// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file (<home>/.todotauriapp/todo.toml)
// 3. Environment variables (TODO_*)
// 4. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
//
// The home directory is taken from HOME, then USERPROFILE. When neither is
// set the user config file is skipped, and loading fails unless a data
// directory was given explicitly.
package config
