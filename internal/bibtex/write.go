package bibtex

import (
	"fmt"
	"io"
	"strings"

	"github.com/matsen/bibsync/internal/reference"
)

// UnmatchedMarker introduces the section of entries that were not updated.
// It is a @comment so the output stays parseable.
const UnmatchedMarker = "@comment{Following: old entries that were not updated with DBLP information}"

// Format renders an entry from its fields:
//
//	@type{key,
//	  name = {value},
//	}
//
// Fields keep their raw value text when known, so macros and concatenations
// survive.
func Format(e reference.Entry) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@%s{%s,\n", e.Type, e.Key))
	for _, f := range e.Fields {
		value := f.Raw
		if value == "" {
			value = "{" + f.Value + "}"
		}
		b.WriteString(fmt.Sprintf("  %s = %s,\n", f.Name, value))
	}
	b.WriteString("}\n")

	return b.String()
}

// Verbatim returns the entry exactly as it was read, or Format(e) if the
// entry has no source text.
func Verbatim(e reference.Entry) string {
	if e.Raw == "" {
		return Format(e)
	}
	return e.Raw + "\n"
}

// Rekey returns a copy of e under a new citation key. The copy has no
// source text, since the original text names the old key.
func Rekey(e reference.Entry, key string) reference.Entry {
	e.Key = key
	e.Raw = ""
	e.Fields = append([]reference.Field(nil), e.Fields...)
	return e
}

// FormatList renders entries with Format, separated by blank lines.
func FormatList(entries []reference.Entry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = Format(e)
	}
	return strings.Join(parts, "\n")
}

// Write writes the @string and @preamble definitions, the updated entries,
// then the unmatched marker followed by the unmatched entries verbatim.
// Definitions come first so the macros used by unmatched entries are
// defined before use. The marker is omitted when there are no unmatched
// entries.
func Write(w io.Writer, definitions []string, updated, unmatched []reference.Entry) error {
	var b strings.Builder

	for _, d := range definitions {
		b.WriteString(d)
		b.WriteString("\n\n")
	}

	b.WriteString(FormatList(updated))

	if len(unmatched) > 0 {
		if len(updated) > 0 {
			b.WriteString("\n")
		}
		b.WriteString(UnmatchedMarker)
		b.WriteString("\n\n")
		for i, e := range unmatched {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(Verbatim(e))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
