package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# todo configuration file (~/.todotauriapp/todo.toml)
# Values can be overridden by TODO_* environment variables or CLI flags.

# Directory holding todos.json (supports ~ and $VAR expansion)
# data_dir = "~/.todotauriapp"

# Logging: level is debug, info, warn or error; format is text, json or logfmt
log_level = "warn"
log_format = "text"
log_timestamps = false
log_caller = false

# Command run after every save with: <operation> <todos.json path> <count>
# hook_command = "/path/to/hook.sh"

# Reject todos.json documents that fail schema validation
strict_load = false
`
}
