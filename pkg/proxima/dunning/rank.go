package dunning

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cognicore/proxima/pkg/proxima/pos"
)

// Entry is a word with its record, used in ranked output.
type Entry struct {
	Word   string `json:"word"`
	Record Record `json:"record"`
}

// Rank orders the result by score descending, ties by word.
func Rank(r Result) []Entry {
	out := make([]Entry, 0, len(r))
	for w, rec := range r {
		out = append(out, Entry{Word: w, Record: rec})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Record.Dunning == out[j].Record.Dunning {
			return out[i].Word < out[j].Word
		}
		return out[i].Record.Dunning > out[j].Record.Dunning
	})
	return out
}

// Split holds the words most associated with each population.
type Split struct {
	Corpus1 []Entry `json:"corpus1"`
	Corpus2 []Entry `json:"corpus2"`
}

// TopByPartOfSpeech takes the topN highest and topN lowest scoring words.
// When tags is non-empty, only words whose tag (from tagging the word on
// its own) is in tags are kept.
func TopByPartOfSpeech(r Result, topN int, tagger pos.Tagger, tags pos.TagSet) (Split, error) {
	ranked := Rank(r)
	keep := func(word string) (bool, error) {
		if tags.Empty() || tagger == nil {
			return true, nil
		}
		tag, err := pos.TagWord(tagger, word)
		if err != nil {
			return false, fmt.Errorf("tag %q: %w", word, err)
		}
		return tags.Contains(tag), nil
	}

	var s Split
	for _, e := range ranked {
		if topN > 0 && len(s.Corpus1) == topN {
			break
		}
		ok, err := keep(e.Word)
		if err != nil {
			return Split{}, err
		}
		if ok {
			s.Corpus1 = append(s.Corpus1, e)
		}
	}
	for i := len(ranked) - 1; i >= 0; i-- {
		if topN > 0 && len(s.Corpus2) == topN {
			break
		}
		ok, err := keep(ranked[i].Word)
		if err != nil {
			return Split{}, err
		}
		if ok {
			s.Corpus2 = append(s.Corpus2, ranked[i])
		}
	}
	return s, nil
}

// Format writes both halves of split as fixed-width tables.
func Format(w io.Writer, split Split, name1, name2 string) error {
	if name1 == "" {
		name1 = "Corpus 1"
	}
	if name2 == "" {
		name2 = "Corpus 2"
	}
	headings := []string{
		"term", "dunning", "count_total", "count " + name1, "count " + name2,
		"freq_total", "freq " + name1, "freq " + name2,
	}

	var b strings.Builder
	for i, entries := range [][]Entry{split.Corpus1, split.Corpus2} {
		name := name1
		if i == 1 {
			name = name2
		}
		fmt.Fprintf(&b, "\nDunning Log-Likelihood results for %s\n|", name)
		for _, h := range headings {
			fmt.Fprintf(&b, " %-19s|", h)
		}
		b.WriteString("\n" + strings.Repeat("_", len(headings)*21) + "\n")
		for _, e := range entries {
			r := e.Record
			fmt.Fprintf(&b, "|  %-18s|", e.Word)
			fmt.Fprintf(&b, "  %17.2f |", r.Dunning)
			fmt.Fprintf(&b, "  %17d |  %17d |  %17d |", r.CountTotal, r.CountCorp1, r.CountCorp2)
			fmt.Fprintf(&b, "  %16.4f%% |  %16.4f%% |  %16.4f%% |\n", r.FreqTotal*100, r.FreqCorp1*100, r.FreqCorp2*100)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
