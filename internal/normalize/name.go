package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/matsen/bibsync/internal/reference"
)

// undecomposable covers letters that NFD leaves intact but that have a
// conventional plain-Latin spelling.
var undecomposable = strings.NewReplacer(
	"ß", "ss",
	"ø", "o", "Ø", "O",
	"ł", "l", "Ł", "L",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"đ", "d", "Đ", "D",
	"ð", "d", "Ð", "D",
	"þ", "th", "Þ", "Th",
	"ı", "i", "ȷ", "j",
)

// markup removes grouping braces and turns ties into spaces.
var markup = strings.NewReplacer("{", "", "}", "", "~", " ")

// Transliterate approximates s with unaccented letters: accents are removed
// and a few letters without a decomposition are spelled out.
func Transliterate(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return undecomposable.Replace(out)
}

// Name returns the comparable form of a person's name: LaTeX decoded, braces
// and disambiguation digits removed, reduced to its first and last tokens and
// transliterated. Case is preserved.
//
// A single-token name becomes "Token Token" so that both sides of a
// comparison collapse the same way.
func Name(raw string) string {
	s := DecodeLaTeX(raw)
	s = markup.Replace(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, s)

	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return ""
	}
	return Transliterate(tokens[0] + " " + tokens[len(tokens)-1])
}

// AuthorName returns the comparable form of a parsed BibTeX author.
func AuthorName(a reference.Author) string {
	return Name(a.Full())
}
