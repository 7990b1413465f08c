// Package normalize turns author names and identifiers into comparable forms.
package normalize

import "strings"

// doiPrefixes are stripped from DOIs before comparison. Longer forms come
// first so that "https://doi.org/" is not left as "https://".
var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi.org/",
	"doi:",
}

// DOI returns the bare identifier of a DOI, without URL or scheme prefix.
// Case is preserved; use SameDOI to compare.
func DOI(doi string) string {
	doi = strings.TrimSpace(doi)
	lower := strings.ToLower(doi)
	for _, prefix := range doiPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(doi[len(prefix):])
		}
	}
	return doi
}

// SameDOI reports whether two DOIs are both present and identify the same
// object, ignoring case and the URL prefix.
func SameDOI(a, b string) bool {
	a, b = DOI(a), DOI(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
