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

func TestDefault(t *testing.T) {
	d := Default()

	if d.BaseURL != "https://dblp.org" {
		t.Errorf("BaseURL = %q", d.BaseURL)
	}
	if d.RequestDelay != 5*time.Second {
		t.Errorf("RequestDelay = %v, want 5s", d.RequestDelay)
	}
	if d.OutputPath != "./" || d.OutputFile != "new_bibtex" {
		t.Errorf("output = %q/%q, want ./ and new_bibtex", d.OutputPath, d.OutputFile)
	}
	if d.Match != match.DefaultPolicy {
		t.Errorf("Match = %+v, want default policy", d.Match)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*GlobalConfig)
		wantErr string
	}{
		{"valid", func(c *GlobalConfig) {}, ""},
		{"negative delay disables throttle", func(c *GlobalConfig) { c.RequestDelay = -1 }, ""},
		{"uppercase level", func(c *GlobalConfig) { c.LogLevel = "DEBUG" }, ""},
		{"bad level", func(c *GlobalConfig) { c.LogLevel = "verbose" }, "log_level"},
		{"bad format", func(c *GlobalConfig) { c.LogFormat = "xml" }, "log_format"},
		{"negative timeout", func(c *GlobalConfig) { c.Timeout = -time.Second }, "timeout"},
		{"zero hits", func(c *GlobalConfig) { c.MaxHits = 0 }, "max_hits"},
		{"file name with directory", func(c *GlobalConfig) { c.OutputFile = "out/refs" }, "output_file"},
		{"threshold above one", func(c *GlobalConfig) { c.Match.TitleThreshold = 1.5 }, "match.title_threshold"},
		{"zero threshold", func(c *GlobalConfig) { c.Match.AuthorThreshold = 0 }, ""},
		{"empty base url", func(c *GlobalConfig) { c.BaseURL = "" }, "base_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() error = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/papers", filepath.Join(home, "papers")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ExpandPath(tt.input); got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
