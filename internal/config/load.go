package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/todo-go/internal/appdir"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (<home>/.todotauriapp/todo.toml)
// 3. Environment variables
// 4. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cws, err := load(fs, args, os.LookupEnv)
	if err != nil {
		return nil, err
	}
	return cws.Config, nil
}

// LoadWithSources loads configuration and tracks the source of each value.
// Returns ConfigWithSources containing the config and a map of field names to their sources.
func LoadWithSources(fs *flag.FlagSet, args []string) (*ConfigWithSources, error) {
	return load(fs, args, os.LookupEnv)
}

// LoadWithLookup is LoadWithSources with an explicit environment lookup.
func LoadWithLookup(fs *flag.FlagSet, args []string, lookup appdir.LookupFunc) (*ConfigWithSources, error) {
	return load(fs, args, lookup)
}

func load(fs *flag.FlagSet, args []string, lookup appdir.LookupFunc) (*ConfigWithSources, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	sources := make(map[string]ConfigSource)
	cfg := &Config{}
	cws := &ConfigWithSources{Config: cfg, Sources: sources}

	// 1. Set defaults (all fields start with default source)
	setDefaults(cfg)
	for _, field := range configFields() {
		sources[field] = SourceDefault
	}

	// The home directory is optional until finalize needs it.
	home, homeErr := appdir.Home(lookup)
	if homeErr == nil {
		cfg.Home = home
	}

	// 2. Try to load from user config file
	if userConfigFile := findUserConfigFile(home); userConfigFile != "" {
		undecoded, err := loadConfigFile(cfg, userConfigFile, sources, SourceUserFile)
		if err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userConfigFile, err)
		}
		cfg.ConfigFile = userConfigFile
		if len(undecoded) > 0 {
			cws.Warnings = append(cws.Warnings, fmt.Sprintf("%s: unknown keys: %s", userConfigFile, strings.Join(undecoded, ", ")))
		}
	}

	// 3. Override from environment
	loadFromEnv(cfg, lookup, sources)

	// 4. Parse CLI flags (they override everything)
	if err := parseFlags(cfg, fs, args, sources); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 5. Compute derived values
	if err := finalizeConfig(cfg, lookup, homeErr); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	return cws, nil
}

// findUserConfigFile returns the user config file path if it exists.
func findUserConfigFile(home string) string {
	if home == "" {
		return ""
	}
	path := appdir.ConfigPath(appdir.DirPath(home))
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// loadConfigFile decodes TOML from path into cfg and marks the keys it
// defines with source. It returns the keys it did not recognise.
func loadConfigFile(cfg *Config, path string, sources map[string]ConfigSource, source ConfigSource) ([]string, error) {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if sources != nil {
		for _, field := range configFields() {
			if md.IsDefined(field) {
				sources[field] = source
			}
		}
	}

	var undecoded []string
	for _, key := range md.Undecoded() {
		undecoded = append(undecoded, key.String())
	}
	sort.Strings(undecoded)
	return undecoded, nil
}

// finalizeConfig computes derived values and validates settings.
func finalizeConfig(cfg *Config, lookup appdir.LookupFunc, homeErr error) error {
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch cfg.LogFormat {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("invalid log_format %q (want text, json or logfmt)", cfg.LogFormat)
	}

	// A missing home only matters to commands that open the todo file,
	// so it is recorded rather than returned.
	if cfg.DataDir == "" {
		if homeErr != nil {
			cfg.dataDirErr = homeErr
			return nil
		}
		cfg.DataDir = appdir.DirPath(cfg.Home)
		return nil
	}

	dir := expandPath(cfg.DataDir, cfg.Home, lookup)
	if strings.HasPrefix(dir, "~") && cfg.Home == "" {
		cfg.dataDirErr = fmt.Errorf("data_dir %q: %w", cfg.DataDir, appdir.ErrNoHome)
		cfg.DataDir = ""
		return nil
	}
	if !filepath.IsAbs(dir) {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolving data_dir: %w", err)
		}
		dir = abs
	}
	cfg.DataDir = filepath.Clean(dir)
	return nil
}
