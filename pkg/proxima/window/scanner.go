// Package window scans token sequences for group occurrences and counts the
// part-of-speech filtered words that surround them.
package window

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cognicore/proxima/pkg/proxima/counter"
	"github.com/cognicore/proxima/pkg/proxima/group"
	"github.com/cognicore/proxima/pkg/proxima/internalerr"
	"github.com/cognicore/proxima/pkg/proxima/pos"
)

// DefaultWindow is the number of words examined on each side of an occurrence.
const DefaultWindow = 5

// Scanner counts tagged words in windows around group members.
type Scanner struct {
	tagger pos.Tagger
	tags   pos.TagSet
}

// NewScanner validates its collaborators.
func NewScanner(tagger pos.Tagger, tags pos.TagSet) (*Scanner, error) {
	if tagger == nil {
		return nil, fmt.Errorf("nil tagger: %w", internalerr.ErrInvalidConfig)
	}
	if tags.Empty() {
		return nil, fmt.Errorf("empty tag set: %w", internalerr.ErrInvalidConfig)
	}
	return &Scanner{tagger: tagger, tags: tags}, nil
}

// Tags returns the accepted tag set.
func (s *Scanner) Tags() pos.TagSet {
	return s.tags
}

// Scan slides a window of 2*window+1 tokens over tokens. A window counts when
// its center is a member of target and no token in it belongs to an excluded
// group. Every token in a counted window whose tag is accepted is counted
// once. Windows that do not fit entirely inside tokens are skipped.
func (s *Scanner) Scan(tokens []string, target group.Group, window int, exclude []group.Group) (counter.Counter, error) {
	if window < 0 {
		return nil, fmt.Errorf("window %d: %w", window, internalerr.ErrInvalidInput)
	}
	out := counter.New()
	size := 2*window + 1
	if len(tokens) < size {
		return out, nil
	}

	for center := window; center+window < len(tokens); center++ {
		if !target.Contains(tokens[center]) {
			continue
		}
		span := tokens[center-window : center+window+1]
		if excluded(span, exclude) {
			continue
		}

		words := make([]string, len(span))
		for i, tok := range span {
			words[i] = strings.ToLower(tok)
		}
		tagged, err := s.tagger.Tag(words)
		if err != nil {
			return nil, fmt.Errorf("tag window at %d: %w", center, err)
		}
		if len(tagged) != len(words) {
			return nil, fmt.Errorf("tagger returned %d tags for %d tokens", len(tagged), len(words))
		}
		for i, tw := range tagged {
			if s.tags.Contains(tw.Tag) {
				out.Add(words[i], 1)
			}
		}
	}
	return out, nil
}

func excluded(span []string, groups []group.Group) bool {
	for _, g := range groups {
		for _, tok := range span {
			if g.Contains(tok) {
				return true
			}
		}
	}
	return false
}

// Outcome is the result of ScanWithBound. Counts is nil when Insufficient.
type Outcome struct {
	Counts       counter.Counter
	Insufficient bool
	Bound        float64
}

// Err returns ErrInsufficientWindow for insufficient outcomes.
func (o Outcome) Err() error {
	if o.Insufficient {
		return fmt.Errorf("bound %.1f: %w", o.Bound, internalerr.ErrInsufficientWindow)
	}
	return nil
}

// MinBound is the smallest lower bound for which ScanWithBound runs.
const MinBound = 5

// ScanWithBound applies the lower-bound heuristic before scanning: when the
// target's occurrences sit closer together than MinBound the document is
// reported insufficient instead of scanned.
func (s *Scanner) ScanWithBound(tokens []string, target group.Group, window int, exclude []group.Group) (Outcome, error) {
	bound, ok := LowerBound(Distances(tokens, target))
	if !ok {
		return Outcome{Counts: counter.New()}, nil
	}
	if bound < MinBound {
		return Outcome{Insufficient: true, Bound: bound}, nil
	}
	counts, err := s.Scan(tokens, target, window, exclude)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Counts: counts, Bound: bound}, nil
}

// IsInsufficient reports whether err came from an insufficient outcome.
func IsInsufficient(err error) bool {
	return errors.Is(err, internalerr.ErrInsufficientWindow)
}
