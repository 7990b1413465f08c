package match

import (
	"errors"
	"math"
	"testing"

	"github.com/matsen/bibsync/internal/reference"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "attention is all you need", "attention is all you need", 1},
		{"both empty", "", "", 1},
		{"one empty", "abc", "", 0},
		{"disjoint same length", "abc", "xyz", 0},
		{"disjoint different length", "a", "bcdef", 0},
		{"kitten sitting", "kitten", "sitting", 8.0 / 13.0},
		{"one insertion", "abcd", "abcde", 8.0 / 9.0},
		{"runes not bytes", "müller", "muller", 10.0 / 12.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ratio(tt.a, tt.b); !approxEqual(got, tt.want) {
				t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRatio_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"kitten", "sitting"},
		{"Deep Residual Learning for Image Recognition", "Deep residual learning for image recognition."},
		{"", "nonempty"},
		{"ab", "ba"},
		{"Jörg Müller", "Jorg Muller"},
	}

	for _, p := range pairs {
		if ab, ba := Ratio(p[0], p[1]), Ratio(p[1], p[0]); ab != ba {
			t.Errorf("Ratio(%q, %q) = %v but Ratio(%q, %q) = %v", p[0], p[1], ab, p[1], p[0], ba)
		}
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{MatchedByDOI, "doi"},
		{MatchedBySimilarity, "similarity"},
		{Unmatched, "unmatched"},
		{NotFound, "not_found"},
		{RequestFailed, "request_failed"},
		{Kind(42), "kind(42)"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name           string
		title, author  float64
		wantKind       Kind
		wantConfidence Confidence
	}{
		{"perfect", 1.0, 1.0, MatchedBySimilarity, ConfidenceHigh},
		{"title below threshold", 0.85, 1.0, Unmatched, ""},
		{"author below threshold", 1.0, 0.85, Unmatched, ""},
		{"title at threshold", 0.9, 1.0, Unmatched, ""},
		{"just above both", 0.91, 0.91, MatchedBySimilarity, ConfidenceLow},
		{"mean exactly high", 0.98, 0.98, MatchedBySimilarity, ConfidenceHigh},
		{"mean just below high", 0.97, 0.98, MatchedBySimilarity, ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, conf := DefaultPolicy.Classify(tt.title, tt.author)
			if kind != tt.wantKind {
				t.Errorf("Classify(%v, %v) kind = %v, want %v", tt.title, tt.author, kind, tt.wantKind)
			}
			if conf != tt.wantConfidence {
				t.Errorf("Classify(%v, %v) confidence = %q, want %q", tt.title, tt.author, conf, tt.wantConfidence)
			}
		})
	}
}

func TestClassify_TitleBelowThresholdNeverMatches(t *testing.T) {
	for _, author := range []float64{0, 0.5, 0.91, 0.99, 1} {
		if kind, _ := DefaultPolicy.Classify(0.85, author); kind != Unmatched {
			t.Errorf("Classify(0.85, %v) = %v, want unmatched", author, kind)
		}
	}
}

func vaswani() reference.Entry {
	return reference.Entry{
		Key:     "vaswani2017attention",
		Title:   "Attention is All you Need",
		Authors: []reference.Author{{First: "Ashish", Last: "Vaswani"}, {First: "Noam", Last: "Shazeer"}},
	}
}

func hitsOf(c reference.Candidate) reference.Hits {
	return reference.Hits{Total: 1, Candidates: []reference.Candidate{c}}
}

func TestDecide_RequestFailed(t *testing.T) {
	tests := []struct {
		name   string
		search Search
	}{
		{"server error", Search{Status: 500}},
		{"not found status", Search{Status: 404}},
		{"transport error", Search{Status: 0, Err: errors.New("connection refused")}},
		{"failed despite hits", Search{Status: 503, Hits: hitsOf(reference.Candidate{Title: "Attention is All you Need"})}},
		{"undecodable body", Search{Status: 200, Err: errors.New("invalid character")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(vaswani(), tt.search)
			if got.Kind != RequestFailed {
				t.Fatalf("Kind = %v, want request_failed", got.Kind)
			}
			if got.Status != tt.search.Status {
				t.Errorf("Status = %d, want %d", got.Status, tt.search.Status)
			}
			if got.Stage != StageSearch {
				t.Errorf("Stage = %q, want %q", got.Stage, StageSearch)
			}
			if got.Comparison != nil {
				t.Error("Comparison should be nil for a failed request")
			}
		})
	}

	got := Decide(vaswani(), Search{Status: 0, Err: errors.New("connection refused")})
	if got.Error != "connection refused" {
		t.Errorf("Error = %q, want %q", got.Error, "connection refused")
	}
}

func TestDecide_NotFound(t *testing.T) {
	tests := []struct {
		name string
		hits reference.Hits
	}{
		{"zero total", reference.Hits{Total: 0}},
		{"total without candidates", reference.Hits{Total: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(vaswani(), Search{Status: 200, Hits: tt.hits})
			if got.Kind != NotFound {
				t.Errorf("Kind = %v, want not_found", got.Kind)
			}
		})
	}
}

func TestDecide_DOIMatch(t *testing.T) {
	entry := vaswani()
	entry.DOI = "10.1/abc"

	// Title and author are deliberately unrelated: the DOI decides.
	candidate := reference.Candidate{
		Key:     "journals/x/Y99",
		Title:   "Something Else Entirely",
		DOI:     "https://doi.org/10.1/ABC",
		Authors: []string{"Nobody 0001"},
	}

	got := Decide(entry, Search{Status: 200, Hits: hitsOf(candidate)})
	if got.Kind != MatchedByDOI {
		t.Fatalf("Kind = %v, want doi", got.Kind)
	}
	if got.Comparison != nil {
		t.Error("Comparison should be skipped for DOI matches")
	}
	if got.Candidate == nil || got.Candidate.Key != "journals/x/Y99" {
		t.Errorf("Candidate = %+v, want key journals/x/Y99", got.Candidate)
	}
}

func TestDecide_DOIMismatchFallsThroughToSimilarity(t *testing.T) {
	entry := vaswani()
	entry.DOI = "10.1/abc"

	candidate := reference.Candidate{
		Key:     "conf/nips/VaswaniSPUJGKP17",
		Title:   "Attention is All you Need",
		DOI:     "10.9/other",
		Authors: []string{"Ashish Vaswani", "Noam Shazeer"},
	}

	got := Decide(entry, Search{Status: 200, Hits: hitsOf(candidate)})
	if got.Kind != MatchedBySimilarity {
		t.Fatalf("Kind = %v, want similarity", got.Kind)
	}
	if got.Comparison.DOI != "10.1/abc" || got.Comparison.DOIMatch != "10.9/other" {
		t.Errorf("Comparison DOIs = %q/%q", got.Comparison.DOI, got.Comparison.DOIMatch)
	}
}

func TestDecide_SimilarityMatch(t *testing.T) {
	candidate := reference.Candidate{
		Key:     "conf/nips/VaswaniSPUJGKP17",
		Title:   "Attention is All you Need",
		Authors: []string{"Ashish Vaswani", "Noam Shazeer"},
	}

	got := Decide(vaswani(), Search{Status: 200, Hits: hitsOf(candidate)})
	if got.Kind != MatchedBySimilarity {
		t.Fatalf("Kind = %v, want similarity", got.Kind)
	}
	if got.Confidence != ConfidenceHigh {
		t.Errorf("Confidence = %q, want high", got.Confidence)
	}
	if got.Comparison.TitleScore != 1 || got.Comparison.AuthorScore != 1 {
		t.Errorf("scores = %v/%v, want 1/1", got.Comparison.TitleScore, got.Comparison.AuthorScore)
	}
}

func TestDecide_NormalizesCandidate(t *testing.T) {
	entry := reference.Entry{
		Key:     "muller2020",
		Title:   "Fast & Accurate Trees",
		Authors: []reference.Author{{First: `J{\"o}rg`, Last: `M{\"u}ller`}},
	}
	candidate := reference.Candidate{
		Key:     "journals/t/Muller20",
		Title:   "Fast &amp; Accurate Trees",
		Authors: []string{"Jörg Müller 0002"},
	}

	got := Decide(entry, Search{Status: 200, Hits: hitsOf(candidate)})
	if got.Kind != MatchedBySimilarity {
		t.Fatalf("Kind = %v, want similarity (comparison %+v)", got.Kind, got.Comparison)
	}
	if got.Comparison.Author != "Jorg Muller" || got.Comparison.AuthorMatch != "Jorg Muller" {
		t.Errorf("authors = %q / %q, want Jorg Muller", got.Comparison.Author, got.Comparison.AuthorMatch)
	}
	if got.Comparison.TitleMatch != "Fast &amp; Accurate Trees" {
		t.Errorf("TitleMatch should keep the remote text, got %q", got.Comparison.TitleMatch)
	}
}

func TestDecide_OnlyTopHitConsidered(t *testing.T) {
	hits := reference.Hits{
		Total: 2,
		Candidates: []reference.Candidate{
			{Key: "a", Title: "A Survey of Something Unrelated", Authors: []string{"Jane Roe"}},
			{Key: "b", Title: "Attention is All you Need", Authors: []string{"Ashish Vaswani"}},
		},
	}

	got := Decide(vaswani(), Search{Status: 200, Hits: hits})
	if got.Kind != Unmatched {
		t.Fatalf("Kind = %v, want unmatched", got.Kind)
	}
	if got.Candidate.Key != "a" {
		t.Errorf("Candidate.Key = %q, want a", got.Candidate.Key)
	}
}

func TestDecide_Unmatched(t *testing.T) {
	candidate := reference.Candidate{
		Key:     "conf/x/Other",
		Title:   "Attention is All you Need",
		Authors: []string{"Someone Different"},
	}

	got := Decide(vaswani(), Search{Status: 200, Hits: hitsOf(candidate)})
	if got.Kind != Unmatched {
		t.Fatalf("Kind = %v, want unmatched", got.Kind)
	}
	if got.Confidence != "" {
		t.Errorf("Confidence = %q, want empty", got.Confidence)
	}
	c := got.Comparison
	if c == nil {
		t.Fatal("Comparison should be set for unmatched outcomes")
	}
	if c.TitleScore != 1 {
		t.Errorf("TitleScore = %v, want 1", c.TitleScore)
	}
	if c.AuthorScore > 0.9 {
		t.Errorf("AuthorScore = %v, want <= 0.9", c.AuthorScore)
	}
	if c.Author != "Ashish Vaswani" || c.AuthorMatch != "Someone Different" {
		t.Errorf("compared authors = %q / %q", c.Author, c.AuthorMatch)
	}
}

func TestDecide_MissingAuthors(t *testing.T) {
	entry := reference.Entry{Key: "anon", Title: "Proceedings of Something"}
	candidate := reference.Candidate{Key: "conf/x/2020", Title: "Proceedings of Something"}

	got := Decide(entry, Search{Status: 200, Hits: hitsOf(candidate)})
	if got.Comparison == nil {
		t.Fatal("Comparison should be set")
	}
	if got.Comparison.AuthorMatch != "" {
		t.Errorf("AuthorMatch = %q, want empty", got.Comparison.AuthorMatch)
	}
	if got.Kind != MatchedBySimilarity {
		t.Errorf("Kind = %v, want similarity for identical empty authors", got.Kind)
	}
}

func TestDecide_IsPure(t *testing.T) {
	candidate := reference.Candidate{
		Key:     "conf/nips/VaswaniSPUJGKP17",
		Title:   "Attention Is All You Need.",
		Authors: []string{"Ashish Vaswani"},
	}
	s := Search{Status: 200, Hits: hitsOf(candidate)}

	first := Decide(vaswani(), s)
	for i := 0; i < 3; i++ {
		again := Decide(vaswani(), s)
		if again.Kind != first.Kind || *again.Comparison != *first.Comparison {
			t.Fatalf("Decide is not deterministic: %+v vs %+v", again, first)
		}
	}
}
