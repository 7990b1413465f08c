package reconcile

import (
	"github.com/matsen/bibsync/internal/match"
	"github.com/matsen/bibsync/internal/reference"
)

// Filed is a local entry together with the outcome that placed it in a bucket.
type Filed struct {
	Entry   reference.Entry
	Outcome match.Outcome
}

// Canonical is a matched entry whose remote record was fetched.
type Canonical struct {
	Original reference.Entry
	Record   reference.Entry // Remote record under the original citation key
	Outcome  match.Outcome   // The pass 1 match
}

// Result accumulates the outcome of a run. Buckets are append-only and keep
// the order in which entries were filed.
//
// After Classify every entry is in exactly one of NotFound, Unmatched,
// Failed and Matched. After Canonicalize every Matched entry also appears in
// either Updated or Failed (with a record stage outcome).
type Result struct {
	NotFound  []Filed
	Unmatched []Filed
	Failed    []Filed
	Matched   []Filed
	Updated   []Canonical
}

// Counts summarizes the bucket sizes of a Result.
type Counts struct {
	Total     int `json:"total"`
	Matched   int `json:"matched"`
	Updated   int `json:"updated"`
	NotFound  int `json:"not_found"`
	Unmatched int `json:"unmatched"`
	Failed    int `json:"failed"`
}

func (r *Result) file(f Filed) {
	switch kind := f.Outcome.Kind; {
	case kind.Matched():
		r.Matched = append(r.Matched, f)
	case kind == match.NotFound:
		r.NotFound = append(r.NotFound, f)
	case kind == match.Unmatched:
		r.Unmatched = append(r.Unmatched, f)
	default:
		r.Failed = append(r.Failed, f)
	}
}

// Counts returns the bucket sizes. Total counts each input entry once.
func (r *Result) Counts() Counts {
	return Counts{
		Total:     len(r.NotFound) + len(r.Unmatched) + len(r.Failed) + len(r.Matched) - r.demoted(),
		Matched:   len(r.Matched),
		Updated:   len(r.Updated),
		NotFound:  len(r.NotFound),
		Unmatched: len(r.Unmatched),
		Failed:    len(r.Failed),
	}
}

// demoted counts the Failed entries that were matched in pass 1.
func (r *Result) demoted() int {
	n := 0
	for _, f := range r.Failed {
		if f.Outcome.Stage == match.StageRecord {
			n++
		}
	}
	return n
}

// Partition returns the citation keys whose remote record will be exported
// and the keys whose original entry will be kept. Before Canonicalize runs,
// matched entries are in neither list.
func (r *Result) Partition() (updated, kept []string) {
	for _, c := range r.Updated {
		updated = append(updated, c.Original.Key)
	}
	for _, bucket := range [][]Filed{r.NotFound, r.Unmatched, r.Failed} {
		for _, f := range bucket {
			kept = append(kept, f.Entry.Key)
		}
	}
	return updated, kept
}
