// Package config handles bibsync configuration: defaults, the global YAML
// config file, and BIBSYNC_* environment overrides. Command-line flags are
// applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/matsen/bibsync/internal/dblp"
	"github.com/matsen/bibsync/internal/match"
	"github.com/matsen/bibsync/internal/reconcile"
	"github.com/matsen/bibsync/internal/report"
)

// ErrInvalidConfig indicates a configuration value out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Defaults for values not set anywhere.
const (
	DefaultOutputPath = "./"
	DefaultLogLevel   = "warn"
	DefaultLogFormat  = "text"
)

// ValidLogLevels and ValidLogFormats list the accepted logging values.
var (
	ValidLogLevels  = []string{"debug", "info", "warn", "error"}
	ValidLogFormats = []string{"text", "json"}
)

// GlobalConfig represents configuration stored in ~/.config/bibsync/config.yml.
// Keys missing from the file keep their Default value.
type GlobalConfig struct {
	BaseURL      string        `yaml:"base_url,omitempty"`
	UserAgent    string        `yaml:"user_agent,omitempty"`
	RequestDelay time.Duration `yaml:"request_delay,omitempty"` // e.g. "5s"
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	MaxHits      int           `yaml:"max_hits,omitempty"`

	OutputPath string `yaml:"output_path,omitempty"`
	OutputFile string `yaml:"output_file,omitempty"`
	PDFRoot    string `yaml:"pdf_root,omitempty"` // Base for relative PDF paths in file fields

	LogLevel  string `yaml:"log_level,omitempty"`
	LogFormat string `yaml:"log_format,omitempty"`

	Match match.Policy `yaml:"match,omitempty"`
}

// Default returns the configuration used when nothing is configured.
func Default() GlobalConfig {
	return GlobalConfig{
		BaseURL:      dblp.BaseURL,
		UserAgent:    dblp.DefaultUserAgent,
		RequestDelay: reconcile.DefaultDelay,
		Timeout:      dblp.DefaultTimeout,
		MaxHits:      dblp.DefaultMaxHits,
		OutputPath:   DefaultOutputPath,
		OutputFile:   report.DefaultName,
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		Match:        match.DefaultPolicy,
	}
}

// Validate checks a loaded configuration.
func (c GlobalConfig) Validate() error {
	var problems []string

	if c.BaseURL == "" {
		problems = append(problems, "base_url must not be empty")
	}
	if c.Timeout < 0 {
		problems = append(problems, fmt.Sprintf("timeout must not be negative (got %s)", c.Timeout))
	}
	if c.MaxHits < 1 {
		problems = append(problems, fmt.Sprintf("max_hits must be at least 1 (got %d)", c.MaxHits))
	}
	if c.OutputFile == "" || strings.ContainsAny(c.OutputFile, `/\`) {
		problems = append(problems, fmt.Sprintf("output_file must be a plain file name (got %q)", c.OutputFile))
	}
	if !slices.Contains(ValidLogLevels, strings.ToLower(c.LogLevel)) {
		problems = append(problems, fmt.Sprintf("log_level %q (valid: %v)", c.LogLevel, ValidLogLevels))
	}
	if !slices.Contains(ValidLogFormats, strings.ToLower(c.LogFormat)) {
		problems = append(problems, fmt.Sprintf("log_format %q (valid: %v)", c.LogFormat, ValidLogFormats))
	}
	for name, v := range map[string]float64{
		"match.title_threshold":  c.Match.TitleThreshold,
		"match.author_threshold": c.Match.AuthorThreshold,
		"match.high_confidence":  c.Match.HighConfidence,
	} {
		if v < 0 || v > 1 {
			problems = append(problems, fmt.Sprintf("%s must be between 0 and 1 (got %g)", name, v))
		}
	}

	if len(problems) > 0 {
		slices.Sort(problems)
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
