// Package reconcile drives a run: it searches the remote database for every
// local entry, files each entry by match outcome, and then fetches the
// canonical record of every matched entry.
//
// Requests are strictly sequential and each one waits on the throttle first.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/matsen/bibsync/internal/bibtex"
	"github.com/matsen/bibsync/internal/dblp"
	"github.com/matsen/bibsync/internal/match"
	"github.com/matsen/bibsync/internal/reference"
)

// ErrEmptyRecord indicates a fetched record held no BibTeX entry.
var ErrEmptyRecord = errors.New("record contains no entries")

// Source is the remote bibliographic database. *dblp.Client satisfies it.
type Source interface {
	Search(ctx context.Context, title string) (reference.Hits, error)
	Record(ctx context.Context, key string) (string, error)
}

// Progress receives one Advance call per processed entry.
type Progress interface {
	Start(stage match.Stage, total int)
	Advance(key string, o match.Outcome)
	Finish(stage match.Stage)
}

type nopProgress struct{}

func (nopProgress) Start(match.Stage, int) {}
func (nopProgress) Advance(string, match.Outcome) {}
func (nopProgress) Finish(match.Stage) {}

// Reconciler runs both passes against a Source.
type Reconciler struct {
	src      Source
	throttle Throttle
	policy   match.Policy
	logger   *slog.Logger
	progress Progress
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithThrottle sets the throttle consulted before every request.
func WithThrottle(t Throttle) Option {
	return func(r *Reconciler) {
		r.throttle = t
	}
}

// WithPolicy sets the match thresholds.
func WithPolicy(p match.Policy) Option {
	return func(r *Reconciler) {
		r.policy = p
	}
}

// WithLogger sets the logger for per-entry decisions.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithProgress sets the progress reporter.
func WithProgress(p Progress) Option {
	return func(r *Reconciler) {
		if p != nil {
			r.progress = p
		}
	}
}

// New creates a Reconciler. By default it waits DefaultDelay before every
// request, applies match.DefaultPolicy and logs nothing.
func New(src Source, opts ...Option) *Reconciler {
	r := &Reconciler{
		src:      src,
		throttle: NewThrottle(DefaultDelay),
		policy:   match.DefaultPolicy,
		logger:   slog.New(slog.DiscardHandler),
		progress: nopProgress{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run classifies entries and canonicalizes the matches.
// An error is returned only when ctx ends; the partial result is still valid.
func (r *Reconciler) Run(ctx context.Context, entries []reference.Entry) (*Result, error) {
	res, err := r.Classify(ctx, entries)
	if err != nil {
		return res, err
	}
	return res, r.Canonicalize(ctx, res)
}

// Classify searches for every entry by title, in input order, and files it
// by outcome. Request failures are filed, never returned.
func (r *Reconciler) Classify(ctx context.Context, entries []reference.Entry) (*Result, error) {
	res := &Result{}

	r.progress.Start(match.StageSearch, len(entries))
	defer r.progress.Finish(match.StageSearch)

	for _, e := range entries {
		if err := r.throttle.Wait(ctx); err != nil {
			return res, fmt.Errorf("searching %s: %w", e.Key, err)
		}

		hits, err := r.src.Search(ctx, e.Title)
		o := r.policy.Decide(e, match.Search{Status: statusOf(err), Err: err, Hits: hits})
		res.file(Filed{Entry: e, Outcome: o})

		r.logOutcome(e, o)
		r.warnRateLimited(e.Key, err)
		r.progress.Advance(e.Key, o)
	}

	return res, nil
}

// Canonicalize fetches the remote record of every matched entry, in match
// order, and re-keys it under the local citation key. Entries whose record
// cannot be fetched or parsed are demoted into Failed.
func (r *Reconciler) Canonicalize(ctx context.Context, res *Result) error {
	r.progress.Start(match.StageRecord, len(res.Matched))
	defer r.progress.Finish(match.StageRecord)

	for _, m := range res.Matched {
		if err := r.throttle.Wait(ctx); err != nil {
			return fmt.Errorf("fetching record for %s: %w", m.Entry.Key, err)
		}

		record, err := r.fetch(ctx, m)
		if err != nil {
			o := match.Failed(match.StageRecord, statusOf(err), err)
			o.Candidate = m.Outcome.Candidate
			o.Comparison = m.Outcome.Comparison
			res.Failed = append(res.Failed, Filed{Entry: m.Entry, Outcome: o})

			r.logOutcome(m.Entry, o)
			r.warnRateLimited(m.Entry.Key, err)
			r.progress.Advance(m.Entry.Key, o)
			continue
		}

		res.Updated = append(res.Updated, Canonical{
			Original: m.Entry,
			Record:   bibtex.Rekey(record, m.Entry.Key),
			Outcome:  m.Outcome,
		})
		r.logger.Debug("record fetched", "key", m.Entry.Key, "record", record.Key)
		r.progress.Advance(m.Entry.Key, m.Outcome)
	}

	return nil
}

func (r *Reconciler) fetch(ctx context.Context, m Filed) (reference.Entry, error) {
	text, err := r.src.Record(ctx, m.Outcome.Candidate.Key)
	if err != nil {
		return reference.Entry{}, err
	}

	entries, err := bibtex.ParseString(text)
	if err != nil {
		return reference.Entry{}, &recordError{err: fmt.Errorf("parsing record %s: %w", m.Outcome.Candidate.Key, err)}
	}
	if len(entries) == 0 {
		return reference.Entry{}, &recordError{err: fmt.Errorf("%w: %s", ErrEmptyRecord, m.Outcome.Candidate.Key)}
	}
	return entries[0], nil
}

// recordError marks a record that was received but could not be used.
type recordError struct {
	err error
}

func (e *recordError) Error() string { return e.err.Error() }
func (e *recordError) Unwrap() error { return e.err }
func (e *recordError) HTTPStatus() int { return http.StatusOK }

// statusOf maps a request error to an HTTP status: 200 for success, the
// response status if one was received, otherwise 0.
func statusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var se interface{ HTTPStatus() int }
	if errors.As(err, &se) {
		return se.HTTPStatus()
	}
	return 0
}

func (r *Reconciler) logOutcome(e reference.Entry, o match.Outcome) {
	attrs := []any{"key", e.Key, "outcome", o.Kind.String()}
	if o.Comparison != nil {
		attrs = append(attrs,
			"title_score", o.Comparison.TitleScore,
			"author_score", o.Comparison.AuthorScore)
	}

	switch o.Kind {
	case match.RequestFailed:
		attrs = append(attrs, "stage", o.Stage, "status", o.Status, "error", o.Error)
		r.logger.Warn("request failed", attrs...)
	case match.MatchedBySimilarity:
		attrs = append(attrs, "confidence", o.Confidence)
		r.logger.Info("entry matched", attrs...)
	case match.MatchedByDOI:
		r.logger.Info("entry matched", attrs...)
	default:
		r.logger.Info("entry not matched", attrs...)
	}
}

// warnRateLimited points at the request delay when DBLP throttles us.
func (r *Reconciler) warnRateLimited(key string, err error) {
	if err != nil && dblp.IsRateLimited(err) {
		r.logger.Warn("rate limited by DBLP, consider a longer request delay", "key", key)
	}
}
