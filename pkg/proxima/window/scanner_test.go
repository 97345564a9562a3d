package window

import (
	"errors"
	"testing"

	"github.com/cognicore/proxima/pkg/proxima/counter"
	"github.com/cognicore/proxima/pkg/proxima/group"
	"github.com/cognicore/proxima/pkg/proxima/internalerr"
	"github.com/cognicore/proxima/pkg/proxima/pos"
)

var (
	male   = group.NewFromSets("Male", []string{"he"}, nil, nil)
	female = group.NewFromSets("Female", []string{"she"}, nil, nil)
)

func adjectiveScanner(t *testing.T) *Scanner {
	t.Helper()
	tagger := pos.NewMapTagger(map[string]string{"sad": "JJ", "happy": "JJ", "tall": "JJ"})
	tagger.Default = "XX"
	s, err := NewScanner(tagger, pos.Adjectives())
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	return s
}

func TestNewScannerValidation(t *testing.T) {
	if _, err := NewScanner(nil, pos.Adjectives()); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("nil tagger: got %v", err)
	}
	if _, err := NewScanner(pos.NewMapTagger(nil), pos.TagSet{}); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("empty tags: got %v", err)
	}
}

func TestScanBoundaryCenter(t *testing.T) {
	s := adjectiveScanner(t)
	tokens := []string{"he", "was", "very", "sad", "and", "she", "was", "happy"}

	got, err := s.Scan(tokens, male, 1, []group.Group{female})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty counter for occurrence at the edge, got %v", got)
	}
}

func TestScanCountsFullWindows(t *testing.T) {
	s := adjectiveScanner(t)
	tokens := []string{"the", "sad", "he", "tall", "man", "he", "happy"}

	got, err := s.Scan(tokens, male, 1, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	// center 2 counts sad+tall, center 5 counts happy.
	want := counter.Counter{"sad": 1, "tall": 1, "happy": 1}
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestScanNeverMatchesOutsideBounds(t *testing.T) {
	s := adjectiveScanner(t)
	tokens := []string{"he", "sad", "x", "sad", "he"}
	got, err := s.Scan(tokens, male, 2, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no match, got %v", got)
	}
}

func TestScanExclusionVeto(t *testing.T) {
	s := adjectiveScanner(t)
	tokens := []string{"sad", "he", "she", "happy", "x", "x", "tall", "he", "x"}

	got, err := s.Scan(tokens, male, 1, []group.Group{female})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := counter.Counter{"tall": 1}
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	// Without exclusions the first window counts too.
	got, _ = s.Scan(tokens, male, 1, nil)
	want = counter.Counter{"sad": 1, "tall": 1}
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestScanCaseInsensitiveCenter(t *testing.T) {
	s := adjectiveScanner(t)
	got, err := s.Scan([]string{"Sad", "HE", "x"}, male, 1, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got["sad"] != 1 {
		t.Fatalf("expected lowercased sad, got %v", got)
	}
}

func TestScanEmptyAndNoOccurrence(t *testing.T) {
	s := adjectiveScanner(t)
	for _, tokens := range [][]string{nil, {"a", "sad", "b", "c"}} {
		got, err := s.Scan(tokens, male, 1, nil)
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("expected empty non-nil counter, got %v", got)
		}
	}
}

func TestScanPropagatesTaggerError(t *testing.T) {
	boom := errors.New("tagger down")
	s, err := NewScanner(pos.TaggerFunc(func([]string) ([]pos.Tagged, error) {
		return nil, boom
	}), pos.Adjectives())
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	if _, err := s.Scan([]string{"a", "he", "b"}, male, 1, nil); !errors.Is(err, boom) {
		t.Fatalf("expected tagger error, got %v", err)
	}
}

func TestScanRejectsNegativeWindow(t *testing.T) {
	s := adjectiveScanner(t)
	if _, err := s.Scan([]string{"he"}, male, -1, nil); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLowerBound(t *testing.T) {
	tests := []struct {
		name      string
		distances []int
		want      float64
		ok        bool
	}{
		{"empty", nil, 0, false},
		{"few", []int{1, 1, 1}, 5, true},
		{"odd half", []int{9, 2, 8, 3, 7, 4}, 3, true},
		{"even half", []int{10, 6, 8, 4, 12, 20, 30, 40}, 7, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LowerBound(tt.distances)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("LowerBound(%v) = %v, %v; want %v, %v", tt.distances, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestScanWithBound(t *testing.T) {
	s := adjectiveScanner(t)

	// five occurrences one apart: bound is 1.
	tight := []string{"x", "he", "he", "he", "he", "he", "x"}
	out, err := s.ScanWithBound(tight, male, 1, nil)
	if err != nil {
		t.Fatalf("ScanWithBound: %v", err)
	}
	if !out.Insufficient || out.Counts != nil {
		t.Fatalf("expected insufficient outcome, got %+v", out)
	}
	if !IsInsufficient(out.Err()) {
		t.Fatalf("expected ErrInsufficientWindow, got %v", out.Err())
	}

	loose := []string{"sad", "he", "x"}
	out, err = s.ScanWithBound(loose, male, 1, nil)
	if err != nil {
		t.Fatalf("ScanWithBound: %v", err)
	}
	if out.Insufficient || len(out.Counts) != 0 || out.Err() != nil {
		t.Fatalf("single occurrence has no distances, expected empty outcome, got %+v", out)
	}

	spaced := []string{"sad", "he", "x", "x", "x", "x", "happy", "he", "x"}
	out, err = s.ScanWithBound(spaced, male, 1, nil)
	if err != nil {
		t.Fatalf("ScanWithBound: %v", err)
	}
	want := counter.Counter{"sad": 1, "happy": 1}
	if out.Insufficient || !out.Counts.Equal(want) {
		t.Fatalf("got %+v, want counts %v", out, want)
	}
}

func TestOccurrencesAndDistances(t *testing.T) {
	tokens := []string{"he", "a", "b", "He", "c", "he"}
	idx := Occurrences(tokens, male)
	if len(idx) != 3 || idx[0] != 0 || idx[1] != 3 || idx[2] != 5 {
		t.Fatalf("Occurrences = %v", idx)
	}
	d := Distances(tokens, male)
	if len(d) != 2 || d[0] != 3 || d[1] != 2 {
		t.Fatalf("Distances = %v", d)
	}
}

func TestWindowsAndFollowing(t *testing.T) {
	tokens := []string{"he", "lit", "a", "cigarette", "and", "he", "began"}
	got := Windows(tokens, []string{"HE"}, 1)
	want := counter.Counter{"and": 1, "began": 1}
	if !got.Equal(want) {
		t.Fatalf("Windows = %v, want %v", got, want)
	}

	follow := Following(tokens, "he")
	want = counter.Counter{"lit": 1, "began": 1}
	if !follow.Equal(want) {
		t.Fatalf("Following = %v, want %v", follow, want)
	}
}
