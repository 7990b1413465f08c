// Package bibtex reads and writes BibTeX bibliographies.
//
// The parser keeps the verbatim text of every entry so that entries can be
// written back unchanged, and resolves field values (braces, quotes,
// numbers, @string macros and # concatenation) for matching.
package bibtex

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/matsen/bibsync/internal/reference"
)

// ErrDuplicateKey indicates two entries share a citation key.
var ErrDuplicateKey = errors.New("duplicate citation key")

// SyntaxError reports malformed BibTeX at a line.
type SyntaxError struct {
	Line int
	Msg  string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// monthMacros are predefined by every BibTeX style.
var monthMacros = map[string]string{
	"jan": "January", "feb": "February", "mar": "March", "apr": "April",
	"may": "May", "jun": "June", "jul": "July", "aug": "August",
	"sep": "September", "oct": "October", "nov": "November", "dec": "December",
}

// Document is a parsed bibliography: its entries and the verbatim @string
// and @preamble blocks, both in source order.
type Document struct {
	Entries     []reference.Entry
	Definitions []string
}

// ReadFile parses a BibTeX file into a Document.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}
	doc, err := ParseDocument(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

// ParseFile parses a BibTeX file and returns its entries.
func ParseFile(path string) ([]reference.Entry, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return doc.Entries, nil
}

// Parse reads all of r and parses it as BibTeX.
func Parse(r io.Reader) ([]reference.Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}
	return ParseString(string(data))
}

// ParseString parses BibTeX source and returns its entries in source order.
func ParseString(src string) ([]reference.Entry, error) {
	doc, err := ParseDocument(src)
	if err != nil {
		return nil, err
	}
	return doc.Entries, nil
}

// ParseDocument parses BibTeX source. Text outside entries and @comment
// blocks are dropped. @string and @preamble blocks are kept verbatim, since
// entries written back unchanged may refer to them.
func ParseDocument(src string) (*Document, error) {
	p := &parser{
		src:    src,
		line:   1,
		macros: make(map[string]string, len(monthMacros)),
	}
	for k, v := range monthMacros {
		p.macros[k] = v
	}
	return p.parse()
}

type parser struct {
	src    string
	pos    int
	macros map[string]string

	// Incremental line counting; positions only move forward.
	linePos int
	line    int
}

func (p *parser) lineAt(pos int) int {
	if pos < p.linePos {
		return 1 + strings.Count(p.src[:pos], "\n")
	}
	p.line += strings.Count(p.src[p.linePos:pos], "\n")
	p.linePos = pos
	return p.line
}

func (p *parser) errorf(pos int, format string, args ...any) error {
	return &SyntaxError{Line: p.lineAt(pos), Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parse() (*Document, error) {
	doc := &Document{}
	seen := make(map[string]int) // lowercased key -> line

	for {
		at := strings.IndexByte(p.src[p.pos:], '@')
		if at < 0 {
			return doc, nil
		}
		start := p.pos + at
		p.pos = start + 1

		p.skipSpace()
		typ := p.readIdent()
		p.skipSpace()
		if typ == "" || p.eof() || (p.peek() != '{' && p.peek() != '(') {
			// A stray @ in free text, which BibTeX treats as a comment.
			continue
		}

		closer := byte('}')
		if p.peek() == '(' {
			closer = ')'
		}
		p.pos++

		switch strings.ToLower(typ) {
		case "comment":
			if err := p.skipBody(start, closer); err != nil {
				return nil, err
			}
		case "preamble":
			if err := p.skipBody(start, closer); err != nil {
				return nil, err
			}
			doc.Definitions = append(doc.Definitions, p.src[start:p.pos])
		case "string":
			if err := p.parseMacro(start, closer); err != nil {
				return nil, err
			}
			doc.Definitions = append(doc.Definitions, p.src[start:p.pos])
		default:
			entry, err := p.parseEntry(start, typ, closer)
			if err != nil {
				return nil, err
			}
			lk := strings.ToLower(entry.Key)
			if first, ok := seen[lk]; ok {
				return nil, &SyntaxError{
					Line: entry.Line,
					Msg:  fmt.Sprintf("duplicate citation key %q (first defined on line %d)", entry.Key, first),
					Err:  ErrDuplicateKey,
				}
			}
			seen[lk] = entry.Line
			doc.Entries = append(doc.Entries, entry)
		}
	}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.peek()) {
		p.pos++
	}
}

func (p *parser) readIdent() string {
	start := p.pos
	for !p.eof() && isIdentByte(p.peek()) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// skipBody skips to the delimiter closing a @comment or @preamble.
func (p *parser) skipBody(start int, closer byte) error {
	if closer == '}' {
		_, err := p.readBraced(start)
		return err
	}
	depth := 0
	for ; !p.eof(); p.pos++ {
		switch p.peek() {
		case '{':
			depth++
		case '}':
			depth--
		case ')':
			if depth == 0 {
				p.pos++
				return nil
			}
		}
	}
	return p.errorf(start, "unterminated @comment or @preamble")
}

// readBraced reads from just after an opening brace to its matching close
// and returns the content between them.
func (p *parser) readBraced(start int) (string, error) {
	contentStart := p.pos
	depth := 1
	for ; !p.eof(); p.pos++ {
		switch p.peek() {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				content := p.src[contentStart:p.pos]
				p.pos++
				return content, nil
			}
		}
	}
	return "", p.errorf(start, "unbalanced braces")
}

// readQuoted reads from just after an opening quote to the closing quote at
// brace depth zero.
func (p *parser) readQuoted(start int) (string, error) {
	contentStart := p.pos
	depth := 0
	for ; !p.eof(); p.pos++ {
		switch p.peek() {
		case '{':
			depth++
		case '}':
			depth--
		case '"':
			if depth == 0 {
				content := p.src[contentStart:p.pos]
				p.pos++
				return content, nil
			}
		}
	}
	return "", p.errorf(start, "unterminated quoted value")
}

func (p *parser) parseMacro(start int, closer byte) error {
	p.skipSpace()
	name := p.readIdent()
	if name == "" {
		return p.errorf(start, "@string without a name")
	}
	p.skipSpace()
	if p.eof() || p.peek() != '=' {
		return p.errorf(start, "@string %s: expected '='", name)
	}
	p.pos++
	value, _, err := p.parseValue(start, closer)
	if err != nil {
		return err
	}
	p.skipSpace()
	if p.eof() || p.peek() != closer {
		return p.errorf(start, "@string %s: expected %q", name, closer)
	}
	p.pos++
	p.macros[strings.ToLower(name)] = value
	return nil
}

func (p *parser) parseEntry(start int, typ string, closer byte) (reference.Entry, error) {
	entry := reference.Entry{
		Type: strings.ToLower(typ),
		Line: p.lineAt(start),
	}

	p.skipSpace()
	keyStart := p.pos
	for !p.eof() && p.peek() != ',' && p.peek() != closer && !isSpace(p.peek()) {
		p.pos++
	}
	entry.Key = p.src[keyStart:p.pos]
	if entry.Key == "" {
		return entry, p.errorf(start, "@%s entry without a citation key", typ)
	}

	p.skipSpace()
	for {
		if p.eof() {
			return entry, p.errorf(start, "entry %s: unexpected end of input", entry.Key)
		}
		switch p.peek() {
		case closer:
			p.pos++
			entry.Raw = p.src[start:p.pos]
			fillMetadata(&entry)
			return entry, nil
		case ',':
			p.pos++
			p.skipSpace()
			continue
		}

		name := p.readIdent()
		if name == "" {
			return entry, p.errorf(p.pos, "entry %s: unexpected character %q", entry.Key, p.peek())
		}
		p.skipSpace()
		if p.eof() || p.peek() != '=' {
			return entry, p.errorf(p.pos, "entry %s: field %s: expected '='", entry.Key, name)
		}
		p.pos++

		value, raw, err := p.parseValue(start, closer)
		if err != nil {
			return entry, err
		}
		entry.Fields = append(entry.Fields, reference.Field{Name: name, Value: value, Raw: raw})

		p.skipSpace()
		if !p.eof() && p.peek() != ',' && p.peek() != closer {
			return entry, p.errorf(p.pos, "entry %s: field %s: expected ',' or %q", entry.Key, name, closer)
		}
	}
}

// parseValue reads a field value made of one or more parts joined by #.
// It returns the resolved value with whitespace collapsed, and the raw text.
func (p *parser) parseValue(start int, closer byte) (string, string, error) {
	p.skipSpace()
	rawStart := p.pos

	var b strings.Builder
	for {
		if p.eof() {
			return "", "", p.errorf(start, "unexpected end of input in field value")
		}

		c := p.peek()
		switch {
		case c == '{':
			p.pos++
			s, err := p.readBraced(start)
			if err != nil {
				return "", "", err
			}
			b.WriteString(s)
		case c == '"':
			p.pos++
			s, err := p.readQuoted(start)
			if err != nil {
				return "", "", err
			}
			b.WriteString(s)
		case c >= '0' && c <= '9':
			numStart := p.pos
			for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
				p.pos++
			}
			b.WriteString(p.src[numStart:p.pos])
		case isIdentByte(c):
			name := p.readIdent()
			if v, ok := p.macros[strings.ToLower(name)]; ok {
				b.WriteString(v)
			} else {
				b.WriteString(name)
			}
		default:
			return "", "", p.errorf(p.pos, "unexpected character %q in field value", c)
		}

		rawEnd := p.pos
		p.skipSpace()
		if !p.eof() && p.peek() == '#' {
			p.pos++
			p.skipSpace()
			continue
		}
		return collapseSpace(b.String()), p.src[rawStart:rawEnd], nil
	}
}

// fillMetadata sets the matching fields of an entry from its raw fields.
// Editors stand in for authors on entries that have none (proceedings).
func fillMetadata(e *reference.Entry) {
	e.Title, _ = e.Get("title")
	e.DOI, _ = e.Get("doi")

	names, ok := e.Get("author")
	if !ok || strings.TrimSpace(names) == "" {
		names, _ = e.Get("editor")
	}
	e.Authors = ParseNames(names)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// isIdentByte reports whether c may appear in an entry type, field name or
// macro name.
func isIdentByte(c byte) bool {
	if c >= 0x80 {
		return true
	}
	r := rune(c)
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	return strings.IndexByte("_-:.+/'!?*&;<>[]|`~^$", c) >= 0
}
