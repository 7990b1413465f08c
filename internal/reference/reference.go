// Package reference defines the core domain types for bibliography entries
// and the remote records they are reconciled against.
package reference

import "strings"

// Entry is a citation loaded from a local BibTeX file.
type Entry struct {
	// Identity
	Key  string `json:"key"`  // Citation key chosen by the user
	Type string `json:"type"` // article, inproceedings, ...

	// Metadata used for matching
	Title   string   `json:"title"`
	Authors []Author `json:"authors"`
	DOI     string   `json:"doi,omitempty"`

	// Source fidelity
	Fields []Field `json:"fields"`
	Raw    string  `json:"-"`    // Verbatim text of the entry as read
	Line   int     `json:"line"` // 1-based line of the leading @
}

// Field is a single BibTeX field in source order.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`         // Resolved value, outer delimiters removed
	Raw   string `json:"raw,omitempty"` // Value text as written (e.g. {Foo}, jun, "a" # b)
}

// Get returns the value of the named field, matching case-insensitively.
func (e Entry) Get(name string) (string, bool) {
	for _, f := range e.Fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// FirstAuthor returns the first listed author, or the zero Author if none.
func (e Entry) FirstAuthor() Author {
	if len(e.Authors) == 0 {
		return Author{}
	}
	return e.Authors[0]
}

// Keys returns the citation keys of entries in order.
func Keys(entries []Entry) []string {
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// Candidate is a publication record returned by a remote search.
// Authors is always a list; an absent author list is empty, never nil-vs-object.
type Candidate struct {
	Key     string   `json:"key"` // Database key, used to fetch the full record
	Title   string   `json:"title"`
	DOI     string   `json:"doi,omitempty"`
	Authors []string `json:"authors"` // Display names, possibly with disambiguation digits
	Venue   string   `json:"venue,omitempty"`
	Year    string   `json:"year,omitempty"`
	Type    string   `json:"type,omitempty"`
}

// FirstAuthor returns the first listed author name, or "" if there are none.
func (c Candidate) FirstAuthor() string {
	if len(c.Authors) == 0 {
		return ""
	}
	return c.Authors[0]
}

// Hits is the ranked result of a remote search.
type Hits struct {
	Total      int         `json:"total"`
	Candidates []Candidate `json:"candidates"`
}

// Top returns the first-ranked candidate, or nil if there are none.
func (h Hits) Top() *Candidate {
	if h.Total <= 0 || len(h.Candidates) == 0 {
		return nil
	}
	c := h.Candidates[0]
	return &c
}
