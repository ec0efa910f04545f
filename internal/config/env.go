package config

import (
	"github.com/nibzard/todo-go/internal/appdir"
	"github.com/nibzard/todo-go/internal/utils"
)

// Environment variables recognised by loadFromEnv.
const (
	EnvDataDir       = "TODO_DATA_DIR"
	EnvLogLevel      = "TODO_LOG_LEVEL"
	EnvLogFormat     = "TODO_LOG_FORMAT"
	EnvLogTimestamps = "TODO_LOG_TIMESTAMPS"
	EnvLogCaller     = "TODO_LOG_CALLER"
	EnvHook          = "TODO_HOOK"
	EnvStrict        = "TODO_STRICT"
)

// loadFromEnv overrides config from environment variables.
// If sources is non-nil, it tracks the source of each value.
func loadFromEnv(cfg *Config, lookup appdir.LookupFunc, sources map[string]ConfigSource) {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		return v, ok && v != ""
	}
	mark := func(field string) {
		if sources != nil {
			sources[field] = SourceEnv
		}
	}

	if v, ok := get(EnvDataDir); ok {
		cfg.DataDir = v
		mark("data_dir")
	}
	if v, ok := get(EnvLogLevel); ok {
		cfg.LogLevel = v
		mark("log_level")
	}
	if v, ok := get(EnvLogFormat); ok {
		cfg.LogFormat = v
		mark("log_format")
	}
	if v, ok := get(EnvLogTimestamps); ok {
		cfg.LogTimestamps = utils.BoolFromString(v)
		mark("log_timestamps")
	}
	if v, ok := get(EnvLogCaller); ok {
		cfg.LogCaller = utils.BoolFromString(v)
		mark("log_caller")
	}
	if v, ok := get(EnvHook); ok {
		cfg.HookCommand = v
		mark("hook_command")
	}
	if v, ok := get(EnvStrict); ok {
		cfg.StrictLoad = utils.BoolFromString(v)
		mark("strict_load")
	}
}
