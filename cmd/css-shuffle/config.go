package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	cssshuffle "github.com/M3DZIK/css-shuffle"
	"github.com/M3DZIK/css-shuffle/internal/logging"
)

const (
	defaultConfigPath = ".css-shuffle.yaml"
	envPrefix         = "CSS_SHUFFLE_"
)

var k = koanf.New(".")

// hyphenatedKeys survive the env var underscore-to-dot mapping.
var hyphenatedKeys = []string{"inline-styles", "dry-run"}

// loadConfig loads configuration with precedence: flags > env > file > defaults.
// It must be called after cobra parses flags (in PreRunE or RunE).
func loadConfig(cmd *cobra.Command) error {
	// Resolve config file path from flag
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	// Load config file and env vars
	if err := loadConfigFromPath(configPath); err != nil {
		return err
	}

	// 3. CLI flags (highest precedence, only flags that were explicitly set)
	if err := k.Load(posflag.Provider(cmd.Flags(), ".", k), nil); err != nil {
		return fmt.Errorf("loading command flags: %w", err)
	}

	return validateLogConfig()
}

// loadConfigFromPath loads configuration from a file and environment variables.
// This is separated from loadConfig to allow testing without a cobra command.
func loadConfigFromPath(configPath string) error {
	// 1. Config file (lowest precedence among providers)
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	// 2. Environment variables (CSS_SHUFFLE_* prefix)
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return fmt.Errorf("loading environment variables: %w", err)
	}

	return nil
}

// envKey maps an environment variable to a config key:
//
//	CSS_SHUFFLE_MAPPING_FORMAT -> mapping.format
//	CSS_SHUFFLE_INLINE_STYLES  -> inline-styles
//	CSS_SHUFFLE_VERBOSE        -> verbose
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, h := range hyphenatedKeys {
		key = strings.ReplaceAll(key, strings.ReplaceAll(h, "-", "_"), h)
	}
	return strings.ReplaceAll(key, "_", ".")
}

// buildConfig constructs the library's Config struct from koanf state.
// A positional argument overrides the input directory.
func buildConfig(args []string) cssshuffle.Config {
	config := cssshuffle.Config{
		InputDir:     getStringWithFallback("input", "input", "dist"),
		OutputDir:    getStringWithFallback("output", "output", ""),
		Includes:     getStringsWithFallback("include", "include", cssshuffle.DefaultIncludes),
		Excludes:     getStringsWithFallback("exclude", "exclude", nil),
		Preserve:     getStringsWithFallback("preserve", "preserve", nil),
		InlineStyles: getBoolWithFallback("inline-styles", "inline-styles", false),
		Workers:      getIntWithFallback("workers", "workers", 0),
		DryRun:       getBoolWithFallback("dry-run", "dry-run", false),
		Clean:        getBoolWithFallback("clean", "clean", false),
		Logger:       newLogger(),
	}
	if len(args) > 0 && args[0] != "" {
		config.InputDir = args[0]
	}
	return config
}

// logLevel resolves the log level: --verbose means debug, otherwise
// log-level applies and defaults to errors only.
func logLevel() (logging.LogLevel, error) {
	if getBoolWithFallback("verbose", "verbose", false) {
		return logging.LevelDebug, nil
	}
	return logging.ParseLevel(getStringWithFallback("log-level", "log.level", "error"))
}

// validateLogConfig rejects unknown log levels and formats before a run starts.
func validateLogConfig() error {
	if _, err := logLevel(); err != nil {
		return err
	}
	switch format := getStringWithFallback("log-format", "log.format", "text"); format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", format)
	}
}

// newLogger logs to stderr at the configured level and format.
func newLogger() logging.Logger {
	config := logging.DefaultConfig()
	config.Level, _ = logLevel()
	config.Format = getStringWithFallback("log-format", "log.format", "text")
	return logging.NewLogger(config)
}

// getStringWithFallback checks the flag key first, then the config file key, then returns the default.
func getStringWithFallback(flagKey, configKey, defaultVal string) string {
	if v := k.String(flagKey); v != "" {
		return v
	}
	if v := k.String(configKey); v != "" {
		return v
	}
	return defaultVal
}

// getBoolWithFallback checks the flag key first, then the config file key, then returns the default.
func getBoolWithFallback(flagKey, configKey string, defaultVal bool) bool {
	if k.Exists(flagKey) {
		return k.Bool(flagKey)
	}
	if k.Exists(configKey) {
		return k.Bool(configKey)
	}
	return defaultVal
}

// getIntWithFallback checks the flag key first, then the config file key, then returns the default.
func getIntWithFallback(flagKey, configKey string, defaultVal int) int {
	if k.Exists(flagKey) {
		return k.Int(flagKey)
	}
	if k.Exists(configKey) {
		return k.Int(configKey)
	}
	return defaultVal
}

// getStringsWithFallback checks the flag key first, then the config file key, then returns the default.
// A plain string value, as set through the environment, is split on commas.
func getStringsWithFallback(flagKey, configKey string, defaultVal []string) []string {
	for _, key := range []string{flagKey, configKey} {
		switch v := k.Get(key).(type) {
		case nil:
		case string:
			if list := splitList(v); len(list) > 0 {
				return list
			}
		default:
			if list := k.Strings(key); len(list) > 0 {
				return list
			}
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
