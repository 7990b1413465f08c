package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// accentMarks maps LaTeX accent commands to Unicode combining marks.
var accentMarks = map[byte]rune{
	'"':  '\u0308',
	'\'': '\u0301',
	'`':  '\u0300',
	'^':  '\u0302',
	'~':  '\u0303',
	'=':  '\u0304',
	'.':  '\u0307',
	'u':  '\u0306',
	'v':  '\u030C',
	'H':  '\u030B',
	'c':  '\u0327',
	'k':  '\u0328',
	'r':  '\u030A',
	'd':  '\u0323',
	'b':  '\u0331',
}

// letterCommands are LaTeX commands that stand for a whole letter.
var letterCommands = map[string]string{
	"ss": "ß",
	"o":  "ø",
	"O":  "Ø",
	"l":  "ł",
	"L":  "Ł",
	"ae": "æ",
	"AE": "Æ",
	"oe": "œ",
	"OE": "Œ",
	"aa": "å",
	"AA": "Å",
	"i":  "ı",
	"j":  "ȷ",
	"dh": "ð",
	"DH": "Ð",
	"th": "þ",
	"TH": "Þ",
}

// escapedSymbols are characters that LaTeX escapes with a single backslash.
var escapedSymbols = map[byte]string{
	'&': "&",
	'%': "%",
	'$': "$",
	'#': "#",
	'_': "_",
	'{': "{",
	'}': "}",
	' ': " ",
}

// DecodeLaTeX converts LaTeX accent and letter commands into Unicode text.
// Grouping braces are left in place; unknown commands are dropped with their
// backslash so that their argument text survives.
func DecodeLaTeX(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			i++
			continue
		}

		c := s[i+1]
		if sym, ok := escapedSymbols[c]; ok {
			b.WriteString(sym)
			i += 2
			continue
		}

		if mark, ok := accentMarks[c]; ok && !isLetterCommandStart(s, i+1) {
			base, next := accentArgument(s, i+2)
			if base != "" {
				b.WriteString(base)
				b.WriteRune(mark)
				i = next
				continue
			}
		}

		name, next := commandName(s, i+1)
		if name == "" {
			b.WriteByte(c)
			i += 2
			continue
		}
		if letter, ok := letterCommands[name]; ok {
			b.WriteString(letter)
		}
		// Swallow the space that terminates a control word.
		if next < len(s) && s[next] == ' ' {
			next++
		}
		i = next
	}

	return norm.NFC.String(b.String())
}

// isLetterCommandStart reports whether the command at s[pos] is a multi-letter
// control word such as \aa or \dh rather than a one-letter accent like \u.
func isLetterCommandStart(s string, pos int) bool {
	name, _ := commandName(s, pos)
	if len(name) <= 1 {
		return false
	}
	_, ok := letterCommands[name]
	return ok
}

// commandName reads an ASCII control word starting at s[pos].
func commandName(s string, pos int) (string, int) {
	end := pos
	for end < len(s) && isASCIILetter(s[end]) {
		end++
	}
	return s[pos:end], end
}

// accentArgument returns the base letter following an accent command and the
// index just past it. Accepts "u", "{u}", " u" and "{\i}".
func accentArgument(s string, pos int) (string, int) {
	for pos < len(s) && s[pos] == ' ' {
		pos++
	}
	if pos >= len(s) {
		return "", pos
	}

	if s[pos] == '{' {
		end := strings.IndexByte(s[pos:], '}')
		if end < 0 {
			return "", pos
		}
		inner := s[pos+1 : pos+end]
		switch inner {
		case `\i`:
			inner = "i"
		case `\j`:
			inner = "j"
		}
		return inner, pos + end + 1
	}

	if s[pos] == '\\' {
		name, next := commandName(s, pos+1)
		switch name {
		case "i":
			return "i", next
		case "j":
			return "j", next
		}
		return "", pos
	}

	// A single byte for ASCII, or a whole rune otherwise.
	r := []rune(s[pos:])[0]
	return string(r), pos + len(string(r))
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
