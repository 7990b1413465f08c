package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matsen/bibsync/internal/config"
	"github.com/matsen/bibsync/internal/match"
)

func init() {
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the configuration a run would use, after the config file, BIBSYNC_*
environment variables and flags have been applied.

` + config.HelpfulConfigMessage(),
	Args: cobra.NoArgs,
	RunE: runConfig,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the path of the global config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.GlobalConfigPath()
		if humanOutput {
			fmt.Println(path)
			return nil
		}
		return outputJSON(map[string]string{"path": path})
	},
}

// ConfigResponse is the JSON form of the effective configuration.
type ConfigResponse struct {
	Path         string       `json:"config_file"`
	BaseURL      string       `json:"base_url"`
	UserAgent    string       `json:"user_agent"`
	RequestDelay string       `json:"request_delay"`
	Timeout      string       `json:"timeout"`
	MaxHits      int          `json:"max_hits"`
	OutputPath   string       `json:"output_path"`
	OutputFile   string       `json:"output_file"`
	PDFRoot      string       `json:"pdf_root,omitempty"`
	LogLevel     string       `json:"log_level"`
	LogFormat    string       `json:"log_format"`
	Match        match.Policy `json:"match"`
}

func newConfigResponse(cfg config.GlobalConfig) ConfigResponse {
	return ConfigResponse{
		Path:         config.GlobalConfigPath(),
		BaseURL:      cfg.BaseURL,
		UserAgent:    cfg.UserAgent,
		RequestDelay: cfg.RequestDelay.String(),
		Timeout:      cfg.Timeout.String(),
		MaxHits:      cfg.MaxHits,
		OutputPath:   cfg.OutputPath,
		OutputFile:   cfg.OutputFile,
		PDFRoot:      cfg.PDFRoot,
		LogLevel:     cfg.LogLevel,
		LogFormat:    cfg.LogFormat,
		Match:        cfg.Match,
	}
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	if !humanOutput {
		return outputJSON(newConfigResponse(cfg))
	}

	// Human output is the YAML a config file would hold.
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	fmt.Printf("# %s\n%s", config.GlobalConfigPath(), data)
	return nil
}
