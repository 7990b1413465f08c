package pdf

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/matsen/bibsync/internal/normalize"
)

// doiSearchPages is how many leading pages are searched for a DOI.
const doiSearchPages = 3

// doiInfoKeys are document info entries some publishers fill with the DOI.
var doiInfoKeys = []string{"doi", "DOI", "Subject", "Keywords"}

// A DOI is "10." then a 4-9 digit registrant, a slash and a suffix.
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// ExtractDOI returns the normalized DOI of a PDF file, or "" when it has
// none. The document info dictionary is checked before the text of the
// leading pages. The PDF reader panics on broken cross-reference tables;
// that is reported as an error.
func ExtractDOI(path string) (doi string, err error) {
	defer func() {
		if r := recover(); r != nil {
			doi, err = "", fmt.Errorf("malformed PDF %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info := r.Trailer().Key("Info")
	for _, key := range doiInfoKeys {
		if found := findDOI(info.Key(key).Text()); found != "" {
			return found, nil
		}
	}

	for i := 1; i <= min(doiSearchPages, r.NumPage()); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, terr := page.GetPlainText(nil)
		if terr != nil {
			continue
		}
		if found := findDOI(text); found != "" {
			return found, nil
		}
	}
	return "", nil
}

// findDOI returns the first plausible DOI in text, normalized.
func findDOI(text string) string {
	for _, m := range doiPattern.FindAllString(text, -1) {
		m = strings.TrimRight(m, ".,;:)")
		if plausibleDOI(m) {
			return normalize.DOI(m)
		}
	}
	return ""
}

// plausibleDOI rejects matches cut off right after the slash.
func plausibleDOI(doi string) bool {
	prefix, suffix, ok := strings.Cut(doi, "/")
	return ok && len(prefix) >= 7 && suffix != ""
}
