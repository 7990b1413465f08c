// Package match decides whether a remote search hit is the same publication
// as a local bibliography entry.
package match

import (
	"encoding/json"
	"fmt"

	"github.com/matsen/bibsync/internal/reference"
)

// Kind classifies the outcome of matching one entry.
type Kind int

const (
	MatchedByDOI Kind = iota
	MatchedBySimilarity
	Unmatched
	NotFound
	RequestFailed
)

var kindNames = map[Kind]string{
	MatchedByDOI:        "doi",
	MatchedBySimilarity: "similarity",
	Unmatched:           "unmatched",
	NotFound:            "not_found",
	RequestFailed:       "request_failed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Matched reports whether the kind accepts the candidate as the same publication.
func (k Kind) Matched() bool {
	return k == MatchedByDOI || k == MatchedBySimilarity
}

// Confidence tags similarity matches. It is informational only.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// Stage identifies which remote request an outcome refers to.
type Stage string

const (
	StageSearch Stage = "search"
	StageRecord Stage = "record"
)

// Comparison records the strings and scores behind a textual decision.
type Comparison struct {
	Title       string  `json:"title"`
	TitleMatch  string  `json:"title_match"`
	TitleScore  float64 `json:"title_levenshtein"`
	Author      string  `json:"author"`
	AuthorMatch string  `json:"author_match"`
	AuthorScore float64 `json:"author_levenshtein"`
	DOI         string  `json:"doi,omitempty"`
	DOIMatch    string  `json:"match_doi,omitempty"`
}

// Mean returns the average of the title and author scores.
func (c Comparison) Mean() float64 {
	return (c.TitleScore + c.AuthorScore) / 2
}

// Outcome is the classified result of matching one entry.
type Outcome struct {
	Kind Kind `json:"kind"`

	// RequestFailed only
	Status int    `json:"status,omitempty"` // HTTP status, 0 if no response was received
	Stage  Stage  `json:"stage,omitempty"`
	Error  string `json:"error,omitempty"`

	// MatchedBySimilarity only
	Confidence Confidence `json:"confidence,omitempty"`

	// Set whenever a candidate was examined
	Candidate  *reference.Candidate `json:"candidate,omitempty"`
	Comparison *Comparison          `json:"comparison,omitempty"`
}

// Failed builds a RequestFailed outcome.
func Failed(stage Stage, status int, err error) Outcome {
	o := Outcome{Kind: RequestFailed, Status: status, Stage: stage}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}
