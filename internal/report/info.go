package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/matsen/bibsync/internal/match"
	"github.com/matsen/bibsync/internal/reconcile"
	"github.com/matsen/bibsync/internal/reference"
)

// Info is the diagnostic report written next to the bibliography.
type Info struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Source      string    `json:"source"`

	NotFound   []Missing  `json:"entries_not_found"`
	NotMatched []Mismatch `json:"entries_not_matched"`
	Failed     []Failure  `json:"requests_failed"`
	Parsed     []string   `json:"parsed_entries"` // Keys exported with their remote record

	Reasons Reasons          `json:"match_reasons"`
	Summary reconcile.Counts `json:"summary"`
}

// Missing is an entry the search found nothing for.
type Missing struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// Mismatch is an entry whose top hit fell below the thresholds.
type Mismatch struct {
	Key        string               `json:"key"`
	Title      string               `json:"title"`
	Candidate  *reference.Candidate `json:"candidate,omitempty"`
	Comparison *match.Comparison    `json:"comparison"`
}

// Failure is an entry whose search or record request failed.
type Failure struct {
	Key    string      `json:"key"`
	Title  string      `json:"title"`
	Status int         `json:"status"` // 0 if no response was received
	Stage  match.Stage `json:"stage"`
	Error  string      `json:"error,omitempty"`
}

// Reasons groups the exported keys by how they were matched.
type Reasons struct {
	DOI        []string `json:"doi"`
	Similarity Similar  `json:"levenshtein"`
}

// Similar splits similarity matches by confidence.
type Similar struct {
	High  []Scored `json:">=0.98"`
	Other []Scored `json:"other"`
}

// Scored is a similarity match with the comparison behind it.
type Scored struct {
	Key        string            `json:"key"`
	Comparison *match.Comparison `json:"comparison"`
}

// BuildInfo summarizes a finished run. Lists are never null in the JSON.
func BuildInfo(source string, res *reconcile.Result) Info {
	info := Info{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Source:      source,
		NotFound:    []Missing{},
		NotMatched:  []Mismatch{},
		Failed:      []Failure{},
		Parsed:      []string{},
		Reasons: Reasons{
			DOI:        []string{},
			Similarity: Similar{High: []Scored{}, Other: []Scored{}},
		},
		Summary: res.Counts(),
	}

	for _, f := range res.NotFound {
		info.NotFound = append(info.NotFound, Missing{Key: f.Entry.Key, Title: f.Entry.Title})
	}
	for _, f := range res.Unmatched {
		info.NotMatched = append(info.NotMatched, Mismatch{
			Key:        f.Entry.Key,
			Title:      f.Entry.Title,
			Candidate:  f.Outcome.Candidate,
			Comparison: f.Outcome.Comparison,
		})
	}
	for _, f := range res.Failed {
		info.Failed = append(info.Failed, Failure{
			Key:    f.Entry.Key,
			Title:  f.Entry.Title,
			Status: f.Outcome.Status,
			Stage:  f.Outcome.Stage,
			Error:  f.Outcome.Error,
		})
	}

	for _, c := range res.Updated {
		key := c.Original.Key
		info.Parsed = append(info.Parsed, key)

		switch {
		case c.Outcome.Kind == match.MatchedByDOI:
			info.Reasons.DOI = append(info.Reasons.DOI, key)
		case c.Outcome.Confidence == match.ConfidenceHigh:
			info.Reasons.Similarity.High = append(info.Reasons.Similarity.High, Scored{Key: key, Comparison: c.Outcome.Comparison})
		default:
			info.Reasons.Similarity.Other = append(info.Reasons.Similarity.Other, Scored{Key: key, Comparison: c.Outcome.Comparison})
		}
	}

	return info
}
