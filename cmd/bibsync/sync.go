package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/bibsync/internal/bibtex"
	"github.com/matsen/bibsync/internal/config"
	"github.com/matsen/bibsync/internal/dblp"
	"github.com/matsen/bibsync/internal/logging"
	"github.com/matsen/bibsync/internal/pdf"
	"github.com/matsen/bibsync/internal/reconcile"
	"github.com/matsen/bibsync/internal/report"
)

var (
	syncPDFDOI     bool
	syncNoProgress bool
)

func init() {
	rootCmd.Flags().BoolVar(&syncPDFDOI, "pdf-doi", false, "Recover missing DOIs from PDFs linked in file fields")
	rootCmd.Flags().BoolVar(&syncNoProgress, "no-progress", false, "Do not draw progress bars")
}

// SyncResponse is the stdout summary of a run.
type SyncResponse struct {
	RunID         string           `json:"run_id"`
	Source        string           `json:"source"`
	Files         report.Paths     `json:"files"`
	Summary       reconcile.Counts `json:"summary"`
	RecoveredDOIs int              `json:"recovered_dois,omitempty"`
}

// exitError carries the exit code for a failed run.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCode returns the exit code for an error from syncFile.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitError
}

// syncOptions are the inputs of one run besides the bibliography path.
type syncOptions struct {
	cfg      config.GlobalConfig
	pdfDOI   bool
	logger   *slog.Logger
	progress reconcile.Progress
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	opts := syncOptions{cfg: cfg, pdfDOI: syncPDFDOI, logger: logger}
	if !syncNoProgress && isTerminal(os.Stderr) {
		bars := newTerminalProgress(os.Stderr)
		defer bars.Stop()
		opts.progress = bars
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	resp, err := syncFile(ctx, args[0], opts)
	if err != nil {
		exitWithError(exitCode(err), "%v", err)
	}

	if humanOutput {
		printSyncSummary(resp)
		return nil
	}
	return outputJSON(resp)
}

// syncFile runs the whole pipeline for one bibliography: parse, check the
// output directory, reconcile against DBLP, then write both output files.
func syncFile(ctx context.Context, path string, opts syncOptions) (*SyncResponse, error) {
	cfg := opts.cfg
	logger := opts.logger
	if logger == nil {
		logger = logging.NewNop()
	}

	doc, err := bibtex.ReadFile(path)
	if err != nil {
		return nil, withCode(ExitDataError, err)
	}
	entries := doc.Entries
	logger.Info("bibliography loaded", "path", path, "entries", len(entries))

	// Fail before any request if the results could not be saved.
	if err := report.CheckDir(cfg.OutputPath); err != nil {
		return nil, withCode(ExitOutputError, err)
	}
	lock, err := report.AcquireLock(cfg.OutputPath, cfg.OutputFile)
	if err != nil {
		return nil, withCode(ExitOutputError, err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release output lock", "error", err)
		}
	}()

	recovered := 0
	if opts.pdfDOI {
		root := cfg.PDFRoot
		if root == "" {
			root = filepath.Dir(path)
		}
		entries, recovered = pdf.NewRecoverer(root, logger).Fill(entries)
		logger.Info("DOIs recovered from PDFs", "count", recovered)
	}

	client := dblp.NewClient(
		dblp.WithBaseURL(cfg.BaseURL),
		dblp.WithTimeout(cfg.Timeout),
		dblp.WithUserAgent(cfg.UserAgent),
		dblp.WithMaxHits(cfg.MaxHits),
	)
	rec := reconcile.New(client,
		reconcile.WithThrottle(reconcile.NewThrottle(cfg.RequestDelay)),
		reconcile.WithPolicy(cfg.Match),
		reconcile.WithLogger(logger),
		reconcile.WithProgress(opts.progress),
	)

	res, err := rec.Run(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("run interrupted, nothing written: %w", err)
	}

	bib, err := report.Assemble(entries, res)
	if err != nil {
		return nil, err
	}
	bib.Definitions = doc.Definitions
	info := report.BuildInfo(path, res)

	paths, err := report.WriteFiles(cfg.OutputPath, cfg.OutputFile, bib, info)
	if err != nil {
		return nil, withCode(ExitOutputError, err)
	}
	logger.Info("results written", "bibtex", paths.BibTeX, "info", paths.Info)

	return &SyncResponse{
		RunID:         info.RunID,
		Source:        path,
		Files:         paths,
		Summary:       info.Summary,
		RecoveredDOIs: recovered,
	}, nil
}
