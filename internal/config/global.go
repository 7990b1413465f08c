package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "bibsync"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "BIBSYNC_"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/bibsync/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file over the defaults and
// applies BIBSYNC_* environment overrides. A missing file is not an error.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	// File values are decoded over the defaults, so keys the file sets
	// explicitly win even when zero (request_delay: 0s, a 0 threshold).
	cfg := Default()

	if path := GlobalConfigPath(); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing global config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	cfg.OutputPath = ExpandPath(cfg.OutputPath)
	cfg.PDFRoot = ExpandPath(cfg.PDFRoot)

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetConfigValue returns the environment variable if set, else configValue.
func GetConfigValue(envKey, configValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return configValue
}

// EnvKey returns the environment variable that overrides a config key,
// e.g. "request_delay" -> "BIBSYNC_REQUEST_DELAY".
func EnvKey(key string) string {
	return EnvPrefix + toUpperSnake(key)
}

func toUpperSnake(s string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(s))
}

func applyEnv(cfg *GlobalConfig) error {
	cfg.BaseURL = GetConfigValue(EnvKey("base_url"), cfg.BaseURL)
	cfg.UserAgent = GetConfigValue(EnvKey("user_agent"), cfg.UserAgent)
	cfg.OutputPath = GetConfigValue(EnvKey("output_path"), cfg.OutputPath)
	cfg.OutputFile = GetConfigValue(EnvKey("output_file"), cfg.OutputFile)
	cfg.PDFRoot = GetConfigValue(EnvKey("pdf_root"), cfg.PDFRoot)
	cfg.LogLevel = GetConfigValue(EnvKey("log_level"), cfg.LogLevel)
	cfg.LogFormat = GetConfigValue(EnvKey("log_format"), cfg.LogFormat)

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"request_delay", &cfg.RequestDelay},
		{"timeout", &cfg.Timeout},
	}
	for _, d := range durations {
		v := os.Getenv(EnvKey(d.key))
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvKey(d.key), err)
		}
		*d.dst = parsed
	}

	if v := os.Getenv(EnvKey("max_hits")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvKey("max_hits"), err)
		}
		cfg.MaxHits = n
	}

	return nil
}

// HelpfulConfigMessage explains where the global config lives.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`Settings are read from %s, then from BIBSYNC_* environment
variables, then from command-line flags.

Example:
  mkdir -p %s
  printf 'request_delay: 5s\noutput_path: ~/papers\n' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
