package pdf

import (
	"log/slog"

	"github.com/matsen/bibsync/internal/reference"
)

// Recoverer fills missing DOIs from linked PDFs.
type Recoverer struct {
	root    string
	logger  *slog.Logger
	extract func(path string) (string, error)
}

// NewRecoverer creates a Recoverer resolving relative paths against root.
func NewRecoverer(root string, logger *slog.Logger) *Recoverer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recoverer{root: root, logger: logger, extract: ExtractDOI}
}

// Fill returns a copy of entries in which every entry without a DOI gets the
// first DOI found in its linked PDFs, and the number of DOIs recovered.
// Unreadable or missing PDFs are logged and skipped.
func (r *Recoverer) Fill(entries []reference.Entry) ([]reference.Entry, int) {
	out := make([]reference.Entry, len(entries))
	copy(out, entries)

	recovered := 0
	for i := range out {
		if out[i].DOI != "" {
			continue
		}
		field, ok := out[i].Get("file")
		if !ok {
			continue
		}
		if doi := r.firstDOI(out[i].Key, FilePaths(field)); doi != "" {
			out[i].DOI = doi
			recovered++
			r.logger.Debug("recovered DOI from PDF", "key", out[i].Key, "doi", doi)
		}
	}
	return out, recovered
}

func (r *Recoverer) firstDOI(key string, paths []string) string {
	for _, p := range paths {
		full, err := ResolvePath(r.root, p)
		if err != nil {
			r.logger.Warn("skipping linked PDF", "key", key, "error", err)
			continue
		}
		doi, err := r.extract(full)
		if err != nil {
			r.logger.Warn("reading linked PDF", "key", key, "path", full, "error", err)
			continue
		}
		if doi != "" {
			return doi
		}
	}
	return ""
}
