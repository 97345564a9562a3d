package dunning

import (
	"fmt"

	"github.com/cognicore/proxima/pkg/proxima/aggregate"
	"github.com/cognicore/proxima/pkg/proxima/corpus"
	"github.com/cognicore/proxima/pkg/proxima/counter"
	"github.com/cognicore/proxima/pkg/proxima/internalerr"
	"github.com/cognicore/proxima/pkg/proxima/window"
)

// CompareGroups scores the counts of group g1 against g2 in view.
func CompareGroups(view aggregate.View, g1, g2 string) (Result, error) {
	c1, ok := view[g1]
	if !ok {
		return nil, fmt.Errorf("group %q: %w", g1, internalerr.ErrNotFound)
	}
	c2, ok := view[g2]
	if !ok {
		return nil, fmt.Errorf("group %q: %w", g2, internalerr.ErrNotFound)
	}
	return Total(c1, c2), nil
}

// CompareCorpora scores the whole-corpus word counts of c1 against c2.
func CompareCorpora(c1, c2 *corpus.Corpus) Result {
	return Total(c1.WordCounts(), c2.WordCounts())
}

// CompareAssociation scores the words that follow word1 against the words
// that follow word2 across c.
func CompareAssociation(c *corpus.Corpus, word1, word2 string) Result {
	var a, b []counter.Counter
	for _, d := range c.Documents {
		a = append(a, window.Following(d.Tokens(), word1))
		b = append(b, window.Following(d.Tokens(), word2))
	}
	return Total(counter.Merge(a...), counter.Merge(b...))
}

// CompareAssociationBetween scores the words near word in c1 against those
// near it in c2. A positive span counts full windows of that half-width;
// otherwise only the following word is used.
func CompareAssociationBetween(word string, c1, c2 *corpus.Corpus, span int) Result {
	collect := func(c *corpus.Corpus) counter.Counter {
		parts := make([]counter.Counter, 0, c.Len())
		for _, d := range c.Documents {
			if span > 0 {
				parts = append(parts, window.Windows(d.Tokens(), []string{word}, span))
			} else {
				parts = append(parts, window.Following(d.Tokens(), word))
			}
		}
		return counter.Merge(parts...)
	}
	return Total(collect(c1), collect(c2))
}
