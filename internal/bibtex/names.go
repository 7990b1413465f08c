package bibtex

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/matsen/bibsync/internal/reference"
)

// Common name suffixes to keep apart from the last name.
var nameSuffixes = map[string]bool{
	"jr":   true,
	"jr.":  true,
	"sr":   true,
	"sr.":  true,
	"ii":   true,
	"iii":  true,
	"iv":   true,
	"v":    true,
	"phd":  true,
	"ph.d": true,
	"md":   true,
	"m.d":  true,
}

// ParseNames splits a BibTeX name list ("A and B and others") into authors.
// The "others" placeholder is dropped. Returns nil for an empty list.
func ParseNames(s string) []reference.Author {
	var authors []reference.Author
	for _, name := range splitNames(s) {
		if strings.EqualFold(name, "others") {
			continue
		}
		if a := ParseName(name); a.First != "" || a.Last != "" {
			authors = append(authors, a)
		}
	}
	return authors
}

// ParseName parses one BibTeX name in any of the three forms:
//
//	First von Last
//	von Last, First
//	von Last, Jr, First
//
// The von part stays with the last name. Braced groups are never split.
func ParseName(s string) reference.Author {
	parts := splitTopLevel(s, ',')
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch len(parts) {
	case 1:
		return parseFirstLast(tokens(parts[0]))
	case 2:
		return reference.Author{Last: parts[0], First: parts[1]}
	default:
		return reference.Author{
			Last:   parts[0],
			Suffix: parts[1],
			First:  strings.Join(parts[2:], ", "),
		}
	}
}

// parseFirstLast handles the comma-free "First von Last" form.
func parseFirstLast(toks []string) reference.Author {
	switch len(toks) {
	case 0:
		return reference.Author{}
	case 1:
		return reference.Author{Last: toks[0]}
	}

	var a reference.Author
	if len(toks) > 2 && nameSuffixes[strings.ToLower(toks[len(toks)-1])] {
		a.Suffix = toks[len(toks)-1]
		toks = toks[:len(toks)-1]
	}

	// The last name starts at the first lowercase (von) word, if any,
	// otherwise it is the final word.
	split := len(toks) - 1
	for i := 1; i < len(toks)-1; i++ {
		if isVonWord(toks[i]) {
			split = i
			break
		}
	}

	a.First = strings.Join(toks[:split], " ")
	a.Last = strings.Join(toks[split:], " ")
	return a
}

// isVonWord reports whether a word starts with a lowercase letter outside
// braces, which BibTeX takes to mean a particle such as "van" or "de".
func isVonWord(word string) bool {
	if strings.HasPrefix(word, "{") {
		return false
	}
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.IsLower(r)
}

// splitNames splits on the word "and" at brace depth zero.
func splitNames(s string) []string {
	var names []string
	var current []string
	for _, tok := range tokens(s) {
		if strings.EqualFold(tok, "and") {
			if len(current) > 0 {
				names = append(names, strings.Join(current, " "))
			}
			current = nil
			continue
		}
		current = append(current, tok)
	}
	if len(current) > 0 {
		names = append(names, strings.Join(current, " "))
	}
	return names
}

// tokens splits s on whitespace at brace depth zero.
func tokens(s string) []string {
	var toks []string
	depth := 0
	start := -1
	for i, r := range s {
		switch {
		case r == '{':
			depth++
		case r == '}':
			if depth > 0 {
				depth--
			}
		case unicode.IsSpace(r) && depth == 0:
			if start >= 0 {
				toks = append(toks, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		toks = append(toks, s[start:])
	}
	return toks
}

// splitTopLevel splits s on sep at brace depth zero.
func splitTopLevel(s string, sep rune) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + utf8.RuneLen(r)
			}
		}
	}
	return append(parts, s[start:])
}
