package window

import (
	"sort"
	"strings"

	"github.com/cognicore/proxima/pkg/proxima/counter"
	"github.com/cognicore/proxima/pkg/proxima/group"
)

// Occurrences returns the indexes of tokens that are members of g.
func Occurrences(tokens []string, g group.Group) []int {
	var out []int
	for i, tok := range tokens {
		if g.Contains(tok) {
			out = append(out, i)
		}
	}
	return out
}

// Distances returns the gaps between consecutive occurrences of g.
func Distances(tokens []string, g group.Group) []int {
	idx := Occurrences(tokens, g)
	if len(idx) < 2 {
		return nil
	}
	out := make([]int, 0, len(idx)-1)
	for i := 1; i < len(idx); i++ {
		out = append(out, idx[i]-idx[i-1])
	}
	return out
}

// LowerBound computes the minimum window heuristic from occurrence
// distances. ok is false when there are no distances. Three or fewer
// distances give MinBound; otherwise the bound is the median of the smaller
// half of the sorted distances.
func LowerBound(distances []int) (bound float64, ok bool) {
	switch {
	case len(distances) == 0:
		return 0, false
	case len(distances) <= 3:
		return MinBound, true
	}
	sorted := append([]int(nil), distances...)
	sort.Ints(sorted)
	half := sorted[:len(sorted)/2]
	return median(half), true
}

func median(xs []int) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return float64(xs[n/2])
	}
	return float64(xs[n/2-1]+xs[n/2]) / 2
}

// Windows counts the words in full windows centered on any of terms,
// without counting the terms themselves.
func Windows(tokens []string, terms []string, window int) counter.Counter {
	want := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		want[strings.ToLower(t)] = struct{}{}
	}
	out := counter.New()
	if window < 0 {
		return out
	}
	for center := window; center+window < len(tokens); center++ {
		if _, ok := want[strings.ToLower(tokens[center])]; !ok {
			continue
		}
		for _, tok := range tokens[center-window : center+window+1] {
			w := strings.ToLower(tok)
			if _, isTerm := want[w]; isTerm {
				continue
			}
			out.Add(w, 1)
		}
	}
	return out
}

// Following counts the words that come directly after word.
func Following(tokens []string, word string) counter.Counter {
	word = strings.ToLower(word)
	out := counter.New()
	for i := 0; i+1 < len(tokens); i++ {
		if strings.ToLower(tokens[i]) == word {
			out.Add(strings.ToLower(tokens[i+1]), 1)
		}
	}
	return out
}
