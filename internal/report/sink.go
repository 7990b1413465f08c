package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/bibsync/internal/bibtex"
)

const (
	// DefaultName is the default base name of the output files.
	DefaultName = "new_bibtex"

	bibSuffix  = ".bib"
	infoSuffix = "_info.json"
)

// Paths are the files a run writes.
type Paths struct {
	BibTeX string `json:"bibtex"`
	Info   string `json:"info"`
}

// PathsFor returns the output files for a directory and base name.
func PathsFor(dir, name string) Paths {
	return Paths{
		BibTeX: filepath.Join(dir, name+bibSuffix),
		Info:   filepath.Join(dir, name+infoSuffix),
	}
}

// CheckDir verifies that dir exists, is a directory and accepts new files.
func CheckDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output directory: %s is not a directory", dir)
	}

	probe, err := os.CreateTemp(dir, ".bibsync-*")
	if err != nil {
		return fmt.Errorf("output directory not writable: %w", err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

// WriteFiles writes the bibliography and the report under dir.
func WriteFiles(dir, name string, bib Bibliography, info Info) (Paths, error) {
	paths := PathsFor(dir, name)

	var buf bytes.Buffer
	if err := bibtex.Write(&buf, bib.Definitions, bib.Updated, bib.Unmatched); err != nil {
		return paths, fmt.Errorf("rendering bibliography: %w", err)
	}
	if err := os.WriteFile(paths.BibTeX, buf.Bytes(), 0644); err != nil {
		return paths, fmt.Errorf("writing bibliography: %w", err)
	}

	// Keys like ">=0.98" and titles with "&" are written as is.
	buf.Reset()
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(info); err != nil {
		return paths, fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(paths.Info, buf.Bytes(), 0644); err != nil {
		return paths, fmt.Errorf("writing report: %w", err)
	}

	return paths, nil
}
