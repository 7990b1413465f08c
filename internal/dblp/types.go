// Package dblp provides a client for the DBLP publication search and record APIs.
package dblp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/bibsync/internal/reference"
)

// SearchResponse is the JSON document returned by /search/publ/api.
type SearchResponse struct {
	Result struct {
		Query  string `json:"query"`
		Status struct {
			Code FlexibleString `json:"@code"`
			Text string         `json:"text"`
		} `json:"status"`
		Hits struct {
			Total FlexibleString `json:"@total"`
			Sent  FlexibleString `json:"@sent"`
			Hit   HitList        `json:"hit"`
		} `json:"hits"`
	} `json:"result"`
}

// Hit is one search result.
type Hit struct {
	Score FlexibleString `json:"@score"`
	ID    FlexibleString `json:"@id"`
	Info  HitInfo        `json:"info"`
}

// HitInfo holds the bibliographic fields of a hit.
type HitInfo struct {
	Authors struct {
		Author AuthorList `json:"author"`
	} `json:"authors"`
	Title FlexibleString `json:"title"`
	Venue FlexibleString `json:"venue"`
	Year  FlexibleString `json:"year"`
	Type  string         `json:"type"`
	Key   string         `json:"key"`
	DOI   string         `json:"doi"`
	EE    FlexibleString `json:"ee"`
	URL   string         `json:"url"`
}

// FlexibleString can unmarshal from a JSON string, number, or list of
// strings. DBLP encodes counts as strings and repeated fields (venue, ee) as
// lists; lists are joined with ", ".
type FlexibleString string

func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	// Handle null
	if string(data) == "null" {
		*f = ""
		return nil
	}

	// Try string first
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexibleString(s)
		return nil
	}

	// Try number
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleString(n.String())
		return nil
	}

	// Try list of strings
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = FlexibleString(strings.Join(list, ", "))
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into FlexibleString", string(data))
}

func (f FlexibleString) String() string {
	return string(f)
}

// Int parses the value as a base-10 integer, returning 0 if it is not one.
func (f FlexibleString) Int() int {
	n, err := strconv.Atoi(strings.TrimSpace(string(f)))
	if err != nil {
		return 0
	}
	return n
}

// HitList decodes "hit" as either a list of hits or a single hit object.
type HitList []Hit

func (h *HitList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*h = nil
		return nil
	}

	if data[0] == '[' {
		var hits []Hit
		if err := json.Unmarshal(data, &hits); err != nil {
			return err
		}
		*h = hits
		return nil
	}

	var single Hit
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*h = HitList{single}
	return nil
}

// AuthorList decodes "author" as a list, a single object, or a bare string.
// DBLP returns a single object when a publication has exactly one author.
type AuthorList []Author

// Author is one DBLP author. Text is the display name, which may end with
// disambiguation digits such as "Wei Wang 0001".
type Author struct {
	PID  string `json:"@pid"`
	Text string `json:"text"`
}

func (a *Author) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &a.Text)
	}

	// Alias drops the method set so the default decoder is used.
	type alias Author
	var v alias
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Author(v)
	return nil
}

func (l *AuthorList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*l = AuthorList{}
		return nil
	}

	if data[0] == '[' {
		var authors []Author
		if err := json.Unmarshal(data, &authors); err != nil {
			return err
		}
		*l = authors
		return nil
	}

	var single Author
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = AuthorList{single}
	return nil
}

// Names returns the display names in listed order. Never nil.
func (l AuthorList) Names() []string {
	names := make([]string, 0, len(l))
	for _, a := range l {
		names = append(names, a.Text)
	}
	return names
}

// ToCandidate maps a hit to the list-always candidate form.
func (h Hit) ToCandidate() reference.Candidate {
	return reference.Candidate{
		Key:     h.Info.Key,
		Title:   h.Info.Title.String(),
		DOI:     h.Info.DOI,
		Authors: h.Info.Authors.Author.Names(),
		Venue:   h.Info.Venue.String(),
		Year:    h.Info.Year.String(),
		Type:    h.Info.Type,
	}
}

// ToHits maps a search response to ranked candidates.
func (r SearchResponse) ToHits() reference.Hits {
	hits := reference.Hits{
		Total:      r.Result.Hits.Total.Int(),
		Candidates: make([]reference.Candidate, 0, len(r.Result.Hits.Hit)),
	}
	for _, h := range r.Result.Hits.Hit {
		hits.Candidates = append(hits.Candidates, h.ToCandidate())
	}
	return hits
}
