package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matsen/bibsync/internal/match"
)

// writeGlobalConfig points XDG_CONFIG_HOME at a temp dir holding content.
func writeGlobalConfig(t *testing.T, content string) {
	t.Helper()
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, GlobalConfigDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, GlobalConfigFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
}

// clearEnv unsets every override for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"base_url", "user_agent", "request_delay", "timeout", "max_hits",
		"output_path", "output_file", "pdf_root", "log_level", "log_format",
	} {
		t.Setenv(EnvKey(key), "")
	}
}

func TestGlobalConfigPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		name       string
		configHome string
		want       string
	}{
		{"xdg set", "/custom/config", "/custom/config/bibsync/config.yml"},
		{"xdg empty", "", filepath.Join(home, ".config", "bibsync", "config.yml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CONFIG_HOME", tt.configHome)
			if got := GlobalConfigPath(); got != tt.want {
				t.Errorf("GlobalConfigPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadGlobalConfig_NotFound(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	clearEnv(t)

	// Point to a non-existent directory
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if *cfg != Default() {
		t.Errorf("LoadGlobalConfig() = %+v, want defaults", *cfg)
	}
}

func TestLoadGlobalConfig_Valid(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	clearEnv(t)

	writeGlobalConfig(t, `
base_url: http://mirror.example
request_delay: 2s
timeout: 30s
output_path: ~/papers
output_file: refs
log_format: json
match:
  title_threshold: 0.85
`)

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}

	if cfg.BaseURL != "http://mirror.example" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.RequestDelay != 2*time.Second || cfg.Timeout != 30*time.Second {
		t.Errorf("durations = %v/%v, want 2s/30s", cfg.RequestDelay, cfg.Timeout)
	}
	if cfg.OutputFile != "refs" || cfg.LogFormat != "json" {
		t.Errorf("OutputFile/LogFormat = %q/%q", cfg.OutputFile, cfg.LogFormat)
	}
	if cfg.Match.TitleThreshold != 0.85 || cfg.Match.AuthorThreshold != 0.9 {
		t.Errorf("Match = %+v", cfg.Match)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want default", cfg.LogLevel)
	}

	// Check tilde expansion
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "papers"); cfg.OutputPath != want {
		t.Errorf("OutputPath = %q, want %q", cfg.OutputPath, want)
	}
}

func TestLoadGlobalConfig_InvalidYAML(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	clearEnv(t)

	writeGlobalConfig(t, "request_delay: [not, a, duration]\n")

	if _, err := LoadGlobalConfig(); err == nil {
		t.Error("LoadGlobalConfig() should return error for invalid YAML")
	}
}

func TestLoadGlobalConfig_EnvOverrides(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	clearEnv(t)

	writeGlobalConfig(t, "request_delay: 2s\noutput_file: from-file\nlog_level: error\n")
	t.Setenv("BIBSYNC_REQUEST_DELAY", "0s")
	t.Setenv("BIBSYNC_OUTPUT_FILE", "from-env")
	t.Setenv("BIBSYNC_MAX_HITS", "3")

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}

	if cfg.RequestDelay != 0 {
		t.Errorf("RequestDelay = %v, want 0 from the environment", cfg.RequestDelay)
	}
	if cfg.OutputFile != "from-env" {
		t.Errorf("OutputFile = %q, want from-env", cfg.OutputFile)
	}
	if cfg.MaxHits != 3 {
		t.Errorf("MaxHits = %d, want 3", cfg.MaxHits)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want the file value", cfg.LogLevel)
	}
}

func TestLoadGlobalConfig_BadEnv(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"BIBSYNC_REQUEST_DELAY", "five seconds"},
		{"BIBSYNC_TIMEOUT", "1 minute"},
		{"BIBSYNC_MAX_HITS", "many"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			ResetGlobalConfigCache()
			defer ResetGlobalConfigCache()
			clearEnv(t)
			t.Setenv("XDG_CONFIG_HOME", t.TempDir())
			t.Setenv(tt.key, tt.value)

			if _, err := LoadGlobalConfig(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("LoadGlobalConfig() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadGlobalConfig_ExplicitZeros(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	clearEnv(t)
	writeGlobalConfig(t, `request_delay: 0s
match:
  title_threshold: 0
  author_threshold: 0
`)

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}

	if cfg.RequestDelay != 0 {
		t.Errorf("RequestDelay = %v, want 0 from the file", cfg.RequestDelay)
	}
	if cfg.Match.TitleThreshold != 0 || cfg.Match.AuthorThreshold != 0 {
		t.Errorf("thresholds = %v/%v, want 0/0 from the file", cfg.Match.TitleThreshold, cfg.Match.AuthorThreshold)
	}
	if cfg.Match.HighConfidence != match.DefaultPolicy.HighConfidence {
		t.Errorf("HighConfidence = %v, want the default", cfg.Match.HighConfidence)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, zero thresholds are in range", err)
	}
}

func TestGetConfigValue(t *testing.T) {
	// Env var takes priority
	t.Setenv("TEST_CONFIG_KEY", "from-env")
	got := GetConfigValue("TEST_CONFIG_KEY", "from-config")
	if got != "from-env" {
		t.Errorf("GetConfigValue() = %q, want from-env", got)
	}

	// Fall back to config value
	t.Setenv("TEST_CONFIG_KEY", "")
	got = GetConfigValue("TEST_CONFIG_KEY", "from-config")
	if got != "from-config" {
		t.Errorf("GetConfigValue() = %q, want from-config", got)
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"request_delay", "BIBSYNC_REQUEST_DELAY"},
		{"log-level", "BIBSYNC_LOG_LEVEL"},
		{"match.title_threshold", "BIBSYNC_MATCH_TITLE_THRESHOLD"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := EnvKey(tt.input); got != tt.want {
				t.Errorf("EnvKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestHelpfulConfigMessage(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	msg := HelpfulConfigMessage()
	for _, want := range []string{"/custom/config/bibsync/config.yml", EnvPrefix, "request_delay"} {
		if !strings.Contains(msg, want) {
			t.Errorf("HelpfulConfigMessage() does not mention %q:\n%s", want, msg)
		}
	}
}

func TestGlobalConfigCache(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	clearEnv(t)

	writeGlobalConfig(t, "output_file: cached\n")
	configFile := GlobalConfigPath()

	// First load
	cfg1, _ := LoadGlobalConfig()
	if cfg1.OutputFile != "cached" {
		t.Errorf("First load: OutputFile = %q, want cached", cfg1.OutputFile)
	}

	// Modify file
	os.WriteFile(configFile, []byte("output_file: modified\n"), 0644)

	// Second load should return cached value
	cfg2, _ := LoadGlobalConfig()
	if cfg2.OutputFile != "cached" {
		t.Errorf("Second load: OutputFile = %q, want cached (cached)", cfg2.OutputFile)
	}

	// Reset cache
	ResetGlobalConfigCache()

	// Third load should read modified file
	cfg3, _ := LoadGlobalConfig()
	if cfg3.OutputFile != "modified" {
		t.Errorf("Third load: OutputFile = %q, want modified", cfg3.OutputFile)
	}
}
