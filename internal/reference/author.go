package reference

import "strings"

// Author represents one person in a BibTeX name list.
type Author struct {
	First  string `json:"first"`            // First/given name(s), including middle names
	Last   string `json:"last"`             // Last/family name, including any von part
	Suffix string `json:"suffix,omitempty"` // Jr, Sr, III, ...
}

// Full returns "First Last", without the suffix.
func (a Author) Full() string {
	return strings.TrimSpace(a.First + " " + a.Last)
}
