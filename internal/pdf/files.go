// Package pdf recovers DOIs for bibliography entries from the PDFs their
// file fields point at.
package pdf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound indicates a linked PDF does not exist.
var ErrNotFound = errors.New("PDF not found")

// FilePaths returns the PDF paths listed in a BibTeX file field. It accepts
// the JabRef form "description:path:type", plain paths as written by Zotero
// and Mendeley, and ;-separated lists of either.
func FilePaths(field string) []string {
	var paths []string
	for _, item := range splitEscaped(field, ';') {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		path, typ := item, ""
		if parts := splitEscaped(item, ':'); len(parts) == 3 {
			path, typ = parts[1], parts[2]
		}
		path = unescape(strings.TrimSpace(path))

		if path == "" {
			continue
		}
		if strings.EqualFold(typ, "pdf") || strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
	}
	return paths
}

// ResolvePath resolves a PDF path against root. Absolute paths are used as
// is. The file must exist.
func ResolvePath(root, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("no PDF path specified")
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(root, path)
	}

	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, fullPath)
		}
		return "", fmt.Errorf("checking PDF: %w", err)
	}

	return fullPath, nil
}

// splitEscaped splits s on sep, ignoring separators escaped with a backslash.
func splitEscaped(s string, sep byte) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

var unescaper = strings.NewReplacer(`\:`, ":", `\;`, ";", `\\`, `\`)

func unescape(s string) string {
	return unescaper.Replace(s)
}
