// Package main provides the bibsync CLI entry point.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/bibsync/internal/config"
	"github.com/matsen/bibsync/internal/dblp"
	"github.com/matsen/bibsync/internal/reconcile"
	"github.com/matsen/bibsync/internal/report"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// Settings flags; each overrides the config file and environment when set.
var (
	flagOutputPath string
	flagOutputFile string
	flagBaseURL    string
	flagPDFRoot    string
	flagLogLevel   string
	flagLogFormat  string
	flagDelay      time.Duration
	flagTimeout    time.Duration
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		// This ensures Cobra errors (like a missing argument) are visible
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bibsync [flags] <bibfile>",
	Short: "Update a BibTeX file with canonical DBLP records",
	Long: `bibsync looks up every entry of a BibTeX file on DBLP and replaces the
entries it can match with DBLP's own record, keeping your citation keys.

An entry matches when its DOI equals the DOI of DBLP's top search hit, or
when both the title and the first author are close enough to the hit's.
Entries that cannot be matched are kept verbatim after a marker comment.

Two files are written to the output directory:
  <name>.bib        updated entries, then the unmatched originals
  <name>_info.json  what happened to every entry and why

Requests are sent one at a time with a delay between them (default 5s).

Examples:
  bibsync refs.bib
  bibsync --outputpath out --outputfile refs refs.bib
  bibsync --pdf-doi --pdf-root ~/papers refs.bib`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSync,
}

func init() {
	// Optional .env for BIBSYNC_* settings
	_ = godotenv.Load()

	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	pf.StringVar(&flagOutputPath, "outputpath", config.DefaultOutputPath, "Directory for the output files")
	pf.StringVar(&flagOutputFile, "outputfile", report.DefaultName, "Base name of the output files")
	pf.DurationVar(&flagDelay, "delay", reconcile.DefaultDelay, "Pause before every DBLP request (0 disables)")
	pf.DurationVar(&flagTimeout, "timeout", dblp.DefaultTimeout, "HTTP timeout per request")
	pf.StringVar(&flagBaseURL, "base-url", dblp.BaseURL, "DBLP base URL")
	pf.StringVar(&flagPDFRoot, "pdf-root", "", "Directory for relative PDF paths (default: the bibliography's directory)")
	pf.StringVar(&flagLogLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	pf.StringVar(&flagLogFormat, "log-format", config.DefaultLogFormat, "Log format: text or json")

	rootCmd.Version = Version
}

// effectiveConfig layers changed flags over the global config.
func effectiveConfig(cmd *cobra.Command) (config.GlobalConfig, error) {
	loaded, err := config.LoadGlobalConfig()
	if err != nil {
		return config.GlobalConfig{}, err
	}
	cfg := *loaded

	flags := cmd.Flags()
	if flags.Changed("outputpath") {
		cfg.OutputPath = config.ExpandPath(flagOutputPath)
	}
	if flags.Changed("outputfile") {
		cfg.OutputFile = flagOutputFile
	}
	if flags.Changed("delay") {
		cfg.RequestDelay = flagDelay
	}
	if flags.Changed("timeout") {
		cfg.Timeout = flagTimeout
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = flagBaseURL
	}
	if flags.Changed("pdf-root") {
		cfg.PDFRoot = config.ExpandPath(flagPDFRoot)
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}

	return cfg, cfg.Validate()
}
