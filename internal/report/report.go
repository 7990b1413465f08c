// Package report assembles the exported bibliography and the diagnostic
// report of a run, and writes both to disk.
package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matsen/bibsync/internal/reconcile"
	"github.com/matsen/bibsync/internal/reference"
)

// ErrPartition indicates a result that does not account for every input
// entry exactly once.
var ErrPartition = errors.New("result does not partition the input")

// Bibliography is what gets exported: the fetched records under their
// original citation keys, and the untouched originals of everything else.
// Definitions are the input's @string and @preamble blocks, which the
// originals may depend on.
type Bibliography struct {
	Definitions []string
	Updated     []reference.Entry
	Unmatched   []reference.Entry
}

// Assemble builds the exported bibliography from a finished run. Updated
// keeps match order and Unmatched keeps input order. The union of their keys
// must equal the input keys with no key in both.
func Assemble(entries []reference.Entry, res *reconcile.Result) (Bibliography, error) {
	var bib Bibliography

	placed := make(map[string]string, len(entries)) // key -> destination
	place := func(key, dest string) error {
		if prev, ok := placed[key]; ok {
			return fmt.Errorf("%w: %s is both %s and %s", ErrPartition, key, prev, dest)
		}
		placed[key] = dest
		return nil
	}

	for _, c := range res.Updated {
		if err := place(c.Original.Key, "updated"); err != nil {
			return Bibliography{}, err
		}
		bib.Updated = append(bib.Updated, c.Record)
	}
	for _, bucket := range [][]reconcile.Filed{res.NotFound, res.Unmatched, res.Failed} {
		for _, f := range bucket {
			if err := place(f.Entry.Key, "unmatched"); err != nil {
				return Bibliography{}, err
			}
		}
	}

	var missing []string
	for _, e := range entries {
		switch placed[e.Key] {
		case "unmatched":
			bib.Unmatched = append(bib.Unmatched, e)
		case "":
			missing = append(missing, e.Key)
		}
		delete(placed, e.Key)
	}
	if len(missing) > 0 {
		return Bibliography{}, fmt.Errorf("%w: no outcome for %s", ErrPartition, strings.Join(missing, ", "))
	}
	if len(placed) > 0 {
		var extra []string
		for k := range placed {
			extra = append(extra, k)
		}
		return Bibliography{}, fmt.Errorf("%w: unknown keys %s", ErrPartition, strings.Join(extra, ", "))
	}

	return bib, nil
}
