package match

import (
	"html"
	"strings"

	"github.com/matsen/bibsync/internal/normalize"
	"github.com/matsen/bibsync/internal/reference"
)

// Policy holds the thresholds of the similarity step. Acceptance requires
// both scores to be strictly greater than their thresholds.
type Policy struct {
	TitleThreshold  float64 `yaml:"title_threshold" json:"title_threshold"`
	AuthorThreshold float64 `yaml:"author_threshold" json:"author_threshold"`
	HighConfidence  float64 `yaml:"high_confidence" json:"high_confidence"` // Mean score for the "high" tag
}

// DefaultPolicy is the policy used when none is configured.
var DefaultPolicy = Policy{
	TitleThreshold:  0.9,
	AuthorThreshold: 0.9,
	HighConfidence:  0.98,
}

// Search is what the decider sees of one remote search.
type Search struct {
	Status int // HTTP status; 0 if no response was received
	Err    error
	Hits   reference.Hits
}

// Succeeded reports whether the search returned a 2xx status and a
// readable body.
func (s Search) Succeeded() bool {
	return s.Err == nil && s.Status >= 200 && s.Status < 300
}

// Decide applies DefaultPolicy.
func Decide(entry reference.Entry, s Search) Outcome {
	return DefaultPolicy.Decide(entry, s)
}

// Decide classifies entry against the top hit of s. The checks run in a
// fixed order and the first one that applies wins: failed request, no hits,
// DOI equality, then title and first-author similarity.
func (p Policy) Decide(entry reference.Entry, s Search) Outcome {
	if !s.Succeeded() {
		return Failed(StageSearch, s.Status, s.Err)
	}

	top := s.Hits.Top()
	if top == nil {
		return Outcome{Kind: NotFound}
	}

	if normalize.SameDOI(entry.DOI, top.DOI) {
		return Outcome{Kind: MatchedByDOI, Candidate: top}
	}

	cmp := Compare(entry, *top)
	out := Outcome{Candidate: top, Comparison: &cmp}
	out.Kind, out.Confidence = p.Classify(cmp.TitleScore, cmp.AuthorScore)
	return out
}

// Classify applies the similarity thresholds to a pair of scores.
func (p Policy) Classify(titleScore, authorScore float64) (Kind, Confidence) {
	if titleScore > p.TitleThreshold && authorScore > p.AuthorThreshold {
		if (Comparison{TitleScore: titleScore, AuthorScore: authorScore}).Mean() >= p.HighConfidence {
			return MatchedBySimilarity, ConfidenceHigh
		}
		return MatchedBySimilarity, ConfidenceLow
	}
	return Unmatched, ""
}

// Compare scores the title and first author of entry against c.
func Compare(entry reference.Entry, c reference.Candidate) Comparison {
	author := normalize.AuthorName(entry.FirstAuthor())
	authorMatch := normalize.Name(c.FirstAuthor())

	return Comparison{
		Title:       entry.Title,
		TitleMatch:  c.Title,
		TitleScore:  Ratio(strings.ToLower(entry.Title), strings.ToLower(html.UnescapeString(c.Title))),
		Author:      author,
		AuthorMatch: authorMatch,
		AuthorScore: Ratio(strings.ToLower(author), strings.ToLower(authorMatch)),
		DOI:         normalize.DOI(entry.DOI),
		DOIMatch:    normalize.DOI(c.DOI),
	}
}
